// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package logging provides centralized zerolog-based logging for Viewlens.
//
// All analyzers log through this package so embedding applications get one
// consistent stream: JSON for production, console for development.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Int("events", n).Msg("analysis started")
//
// Always terminate log chains with .Msg() or .Send(); a chain without a
// terminator is never emitted.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info.
	Level string `koanf:"level" json:"level"`

	// Format is the output format: json or console. Default: json.
	Format string `koanf:"format" json:"format"`

	// Caller includes caller file and line number in logs. Default: false.
	Caller bool `koanf:"caller" json:"caller"`
}

// DefaultConfig returns the logging defaults.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

var (
	mu     sync.RWMutex
	logger = newLogger(DefaultConfig(), os.Stderr)
)

// Init configures the package-level logger. Safe to call more than once;
// the last call wins.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(cfg, os.Stderr)
}

// InitWithWriter configures the package-level logger with a custom writer.
// Intended for tests.
func InitWithWriter(cfg Config, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(cfg, w)
}

func newLogger(cfg Config, w io.Writer) zerolog.Logger {
	level := parseLevel(cfg.Level)

	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "", "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the current package-level logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a child logger tagged with the given component name.
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// Trace starts a trace-level log event.
func Trace() *zerolog.Event { l := Logger(); return l.Trace() }

// Debug starts a debug-level log event.
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

// Info starts an info-level log event.
func Info() *zerolog.Event { l := Logger(); return l.Info() }

// Warn starts a warn-level log event.
func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

// Error starts an error-level log event.
func Error() *zerolog.Event { l := Logger(); return l.Error() }
