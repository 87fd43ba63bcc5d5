// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package validation wraps go-playground/validator behind a singleton and
// translates its failures into the analysis error taxonomy.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/viewlens/watch"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// GetValidator returns the singleton validator. Field names in validation
// failures use the koanf tag, so they match the configuration keys users
// actually write.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			tag := field.Tag.Get("koanf")
			if tag == "" || tag == "-" {
				return field.Name
			}
			if i := strings.Index(tag, ","); i >= 0 {
				tag = tag[:i]
			}
			return tag
		})
	})
	return validate
}

// ValidateStruct validates tagged struct fields and reports the first
// failure as an InvalidParameterError naming the offending field.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return watch.NewInvalidParameter("config", "%v", err)
	}

	fe := fieldErrs[0]
	if fe.Param() != "" {
		return watch.NewInvalidParameter(fe.Field(), "failed %q validation (param %s), got %v", fe.Tag(), fe.Param(), fe.Value())
	}
	return watch.NewInvalidParameter(fe.Field(), "failed %q validation, got %v", fe.Tag(), fe.Value())
}
