// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package watch

import "fmt"

// InvalidParameterError reports a configuration or parameter value that fails
// validation. Parameter errors are raised before any processing starts and are
// always surfaced to the caller unmodified.
type InvalidParameterError struct {
	// Param is the name of the offending parameter (e.g. "eps", "min_samples").
	Param string

	// Reason describes why the value was rejected.
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// NewInvalidParameter creates an InvalidParameterError for the given parameter.
func NewInvalidParameter(param, format string, args ...interface{}) error {
	return &InvalidParameterError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// InvalidEntryError reports that event data could not be processed. Individual
// malformed entries are dropped and recorded as warnings; this error is only
// returned when the entire input is unusable (every entry invalid, or a corpus
// with no extractable tokens).
type InvalidEntryError struct {
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid entry data: %s", e.Reason)
}

// NewInvalidEntry creates an InvalidEntryError with the given reason.
func NewInvalidEntry(format string, args ...interface{}) error {
	return &InvalidEntryError{Reason: fmt.Sprintf(format, args...)}
}

// Warning records a single entry that was excluded from processing.
// Warnings are returned alongside results (partial-failure tolerance) rather
// than aborting the whole analysis.
type Warning struct {
	// Index is the position of the entry in the original input.
	Index int `json:"index"`

	// Field is the field that failed validation, when attributable.
	Field string `json:"field,omitempty"`

	// Reason describes why the entry was dropped.
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	if w.Field != "" {
		return fmt.Sprintf("entry %d: field %q: %s", w.Index, w.Field, w.Reason)
	}
	return fmt.Sprintf("entry %d: %s", w.Index, w.Reason)
}
