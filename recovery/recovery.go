// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package recovery wraps fallible operations with exponential-backoff retry
// and a circuit breaker. Validation errors never retry: a malformed
// parameter or entry fails the same way every time.
package recovery

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/watch"
)

// Config holds the retry and circuit-breaker parameters.
type Config struct {
	// MaxAttempts bounds the total tries per operation, first call included.
	MaxAttempts uint64 `koanf:"max_attempts" json:"max_attempts" validate:"gte=1"`

	// BaseDelay is the initial backoff interval.
	BaseDelay time.Duration `koanf:"base_delay" json:"base_delay" validate:"gte=0"`

	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration `koanf:"max_delay" json:"max_delay"`

	// Multiplier grows the interval between attempts.
	Multiplier float64 `koanf:"multiplier" json:"multiplier" validate:"gte=1"`

	// FailureThreshold is the consecutive-failure count that opens the
	// breaker.
	FailureThreshold uint32 `koanf:"failure_threshold" json:"failure_threshold" validate:"gte=1"`

	// RecoveryTimeout is how long the breaker stays open before probing.
	RecoveryTimeout time.Duration `koanf:"recovery_timeout" json:"recovery_timeout" validate:"gte=0"`
}

// DefaultConfig returns 3 attempts with 1s..60s exponential backoff and a
// breaker that opens after 5 consecutive failures for 60s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      3,
		BaseDelay:        time.Second,
		MaxDelay:         time.Minute,
		Multiplier:       2,
		FailureThreshold: 5,
		RecoveryTimeout:  time.Minute,
	}
}

// Validate fails fast with an InvalidParameterError on malformed parameters.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return watch.NewInvalidParameter("max_attempts", "must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 {
		return watch.NewInvalidParameter("base_delay", "must be non-negative, got %v", c.BaseDelay)
	}
	if c.MaxDelay < c.BaseDelay {
		return watch.NewInvalidParameter("max_delay", "must be >= base_delay, got %v < %v", c.MaxDelay, c.BaseDelay)
	}
	if c.Multiplier < 1 {
		return watch.NewInvalidParameter("multiplier", "must be at least 1, got %v", c.Multiplier)
	}
	if c.FailureThreshold < 1 {
		return watch.NewInvalidParameter("failure_threshold", "must be at least 1, got %d", c.FailureThreshold)
	}
	if c.RecoveryTimeout < 0 {
		return watch.NewInvalidParameter("recovery_timeout", "must be non-negative, got %v", c.RecoveryTimeout)
	}
	return nil
}

// Runner executes operations under the configured retry and breaker
// policies. A Runner is safe for concurrent use; the breaker state is
// shared across all operations it runs.
type Runner struct {
	name string
	cfg  Config
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewRunner builds a named runner. The name tags breaker state-transition
// logs when several runners coexist.
func NewRunner(name string, cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("runner", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
		},
	})

	return &Runner{name: name, cfg: cfg, cb: cb}, nil
}

// Do runs the operation under the breaker, retrying transient failures with
// exponential backoff. Validation errors and context cancellation are
// permanent and return immediately; an open breaker surfaces as
// gobreaker.ErrOpenState without consuming attempts.
func (r *Runner) Do(ctx context.Context, op func(context.Context) error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(r.newBackOff(), r.cfg.MaxAttempts-1), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		_, err := r.cb.Execute(func() (struct{}, error) {
			return struct{}{}, op(ctx)
		})
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return backoff.Permanent(err)
		}
		logging.Debug().
			Str("runner", r.name).
			Int("attempt", attempt).
			Err(err).
			Msg("operation failed, backing off")
		return err
	}, policy)
}

func (r *Runner) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.BaseDelay
	b.MaxInterval = r.cfg.MaxDelay
	b.Multiplier = r.cfg.Multiplier
	b.MaxElapsedTime = 0
	return b
}

// State exposes the breaker state for observability.
func (r *Runner) State() gobreaker.State {
	return r.cb.State()
}

// IsPermanent reports whether retrying the error is pointless: malformed
// inputs, canceled contexts, and a breaker that is already open.
func IsPermanent(err error) bool {
	var paramErr *watch.InvalidParameterError
	var entryErr *watch.InvalidEntryError
	return errors.As(err, &paramErr) ||
		errors.As(err, &entryErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, gobreaker.ErrOpenState)
}
