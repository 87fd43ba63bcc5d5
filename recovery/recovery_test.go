// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/viewlens/watch"
)

// fastConfig keeps retry delays negligible in tests.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"negative base delay", func(c *Config) { c.BaseDelay = -time.Second }},
		{"max delay below base", func(c *Config) { c.MaxDelay = c.BaseDelay / 2 }},
		{"multiplier below one", func(c *Config) { c.Multiplier = 0.5 }},
		{"zero failure threshold", func(c *Config) { c.FailureThreshold = 0 }},
		{"negative recovery timeout", func(c *Config) { c.RecoveryTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewRunner("test", cfg)
			var paramErr *watch.InvalidParameterError
			if !errors.As(err, &paramErr) {
				t.Fatalf("expected InvalidParameterError, got %v", err)
			}
		})
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	r, err := NewRunner("test", fastConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := 0
	err = r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	r, _ := NewRunner("test", fastConfig())

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 2

	r, _ := NewRunner("test", cfg)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("still broken")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDo_ValidationErrorsDoNotRetry(t *testing.T) {
	r, _ := NewRunner("test", fastConfig())

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return watch.NewInvalidParameter("eps", "must be > 0")
	})
	var paramErr *watch.InvalidParameterError
	if !errors.As(err, &paramErr) {
		t.Fatalf("expected the InvalidParameterError to surface, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1: validation failures are permanent", calls)
	}
}

func TestDo_BreakerOpensOnConsecutiveFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 10
	cfg.FailureThreshold = 2
	cfg.RecoveryTimeout = time.Hour

	r, _ := NewRunner("test", cfg)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})

	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected gobreaker.ErrOpenState, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2: the open breaker must reject further attempts", calls)
	}
	if r.State() != gobreaker.StateOpen {
		t.Errorf("breaker state = %v, want open", r.State())
	}
}

func TestDo_CanceledContextIsPermanent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := NewRunner("test", fastConfig())
	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid parameter", watch.NewInvalidParameter("eps", "bad"), true},
		{"invalid entry", watch.NewInvalidEntry("bad"), true},
		{"canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"open breaker", gobreaker.ErrOpenState, true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
