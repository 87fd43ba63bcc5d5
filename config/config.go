// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package config loads the layered analyzer configuration: built-in
// defaults, then an optional YAML file, then VIEWLENS_-prefixed environment
// variables, each layer overriding the previous one.
//
// Environment variables map section and key through the first underscore:
// VIEWLENS_CLUSTER_EPS becomes cluster.eps,
// VIEWLENS_SUPPRESSION_BASELINE_PERIOD_DAYS becomes
// suppression.baseline_period_days.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/viewlens/cluster"
	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/profile"
	"github.com/tomtom215/viewlens/recovery"
	"github.com/tomtom215/viewlens/simulate"
	"github.com/tomtom215/viewlens/suppression"
	"github.com/tomtom215/viewlens/trend"
	"github.com/tomtom215/viewlens/validation"
)

// ConfigPathEnvVar points at an explicit config file, overriding the search
// paths.
const ConfigPathEnvVar = "VIEWLENS_CONFIG"

// envPrefix namespaces the environment variable layer.
const envPrefix = "VIEWLENS_"

// defaultConfigPaths are searched in order when VIEWLENS_CONFIG is unset.
var defaultConfigPaths = []string{
	"viewlens.yaml",
	"config/viewlens.yaml",
	"/etc/viewlens/config.yaml",
}

// Config aggregates every analysis section. It is immutable after Load and
// safe for concurrent reads.
type Config struct {
	Cluster     cluster.Config     `koanf:"cluster"`
	Profile     profile.Config     `koanf:"profile"`
	Suppression suppression.Config `koanf:"suppression"`
	Trend       trend.Config       `koanf:"trend"`
	Simulate    simulate.Config    `koanf:"simulate"`
	Recovery    recovery.Config    `koanf:"recovery"`
	Logging     logging.Config     `koanf:"logging"`
}

// Default returns the built-in defaults of every section.
func Default() Config {
	return Config{
		Cluster:     cluster.DefaultConfig(),
		Profile:     profile.DefaultConfig(),
		Suppression: suppression.DefaultConfig(),
		Trend:       trend.DefaultConfig(),
		Simulate:    simulate.DefaultConfig(),
		Recovery:    recovery.DefaultConfig(),
		Logging:     logging.DefaultConfig(),
	}
}

// Validate runs tag validation over the whole tree, then each section's own
// semantic checks (the tag grammar cannot express weight sums and the like).
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.Cluster.Validate(); err != nil {
		return err
	}
	if err := c.Profile.Validate(); err != nil {
		return err
	}
	if err := c.Suppression.Validate(); err != nil {
		return err
	}
	if err := c.Trend.Validate(); err != nil {
		return err
	}
	if err := c.Simulate.Validate(); err != nil {
		return err
	}
	return c.Recovery.Validate()
}

// Load builds the configuration from defaults, the first config file found,
// and the environment.
func Load() (*Config, error) {
	return LoadWithPath(findConfigFile())
}

// LoadWithPath builds the configuration with an explicit config file path.
// An empty path skips the file layer.
func LoadWithPath(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps VIEWLENS_SECTION_SOME_KEY to section.some_key: the
// first underscore after the prefix separates section from key.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(s, "_", ".", 1)
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
