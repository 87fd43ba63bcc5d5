// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package simulate generates synthetic watch histories that reproduce the
// statistical texture of a real one: its hourly rhythm, content mix, gap
// distribution, daily volume, and title shapes.
//
// Generation is fully deterministic for a given seed and base profile, which
// makes simulated histories usable as reproducible test fixtures for the
// analysis packages.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/watch"
)

// Config holds the simulation parameters.
type Config struct {
	// Seed fixes the random source. The same seed and base profile always
	// produce the same history.
	Seed int64 `koanf:"seed" json:"seed"`

	// DurationDays is the length of the generated timeline.
	DurationDays int `koanf:"duration_days" json:"duration_days" validate:"gt=0"`
}

// DefaultConfig returns a 30-day simulation with a fixed seed.
func DefaultConfig() Config {
	return Config{
		Seed:         1,
		DurationDays: 30,
	}
}

// Validate fails fast with an InvalidParameterError on malformed parameters.
func (c Config) Validate() error {
	if c.DurationDays <= 0 {
		return watch.NewInvalidParameter("duration_days", "must be > 0, got %d", c.DurationDays)
	}
	return nil
}

// Simulator generates synthetic histories from a learned base profile.
// Each call seeds its own random source, so a Simulator is safe for
// concurrent use and every call with the same inputs yields the same
// history.
type Simulator struct {
	cfg Config
}

// NewSimulator validates the configuration and builds a simulator.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg}, nil
}

// Simulate generates a history for the DurationDays window ending today.
func (s *Simulator) Simulate(ctx context.Context, base []watch.Event) ([]watch.Event, error) {
	start := time.Now().UTC().AddDate(0, 0, -s.cfg.DurationDays).Truncate(24 * time.Hour)
	return s.SimulateFrom(ctx, base, start)
}

// SimulateFrom generates a history starting at the given midnight-aligned
// day. The base profile must contain at least one valid event to learn
// patterns from; an InvalidEntryError from normalization passes through.
func (s *Simulator) SimulateFrom(ctx context.Context, base []watch.Event, start time.Time) ([]watch.Event, error) {
	sorted, _, err := watch.Normalize(base)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return nil, watch.NewInvalidParameter("base_profile", "needs at least one valid event to learn from")
	}

	p := extractPatterns(sorted)
	rng := rand.New(rand.NewSource(s.cfg.Seed))

	var generated []watch.Event
	day := start.Truncate(24 * time.Hour)
	for d := 0; d < s.cfg.DurationDays; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		generated = append(generated, s.generateDay(rng, p, day)...)
		day = day.AddDate(0, 0, 1)
	}

	logging.Debug().
		Int("base_events", len(sorted)).
		Int("generated_events", len(generated)).
		Int("duration_days", s.cfg.DurationDays).
		Msg("profile simulation complete")

	return generated, nil
}

// generateDay emits one day of views: a normally distributed count of
// events anchored at a sampled hour, with each subsequent event placed a
// sampled inter-arrival gap after the previous one. A day whose gaps run
// past midnight ends early rather than spilling into the next day.
func (s *Simulator) generateDay(rng *rand.Rand, p *patterns, day time.Time) []watch.Event {
	count := int(rng.NormFloat64()*p.dailyStd + p.dailyMean)
	if count < 1 {
		count = 1
	}

	dayEnd := day.AddDate(0, 0, 1)
	hour := sampleIndex(rng, p.hourWeights[:])
	ts := day.
		Add(time.Duration(hour) * time.Hour).
		Add(time.Duration(rng.Intn(60)) * time.Minute).
		Add(time.Duration(rng.Intn(60)) * time.Second)

	events := make([]watch.Event, 0, count)
	for i := 0; i < count; i++ {
		if !ts.Before(dayEnd) {
			break
		}
		category := p.categories[sampleIndex(rng, p.categoryWeights)]
		events = append(events, watch.Event{
			Title:     s.generateTitle(rng, p, category),
			URL:       fmt.Sprintf("https://watch.example/v/%016x", rng.Int63()),
			Timestamp: ts,
			Channel:   "simulated",
			Category:  category,
		})

		gap := p.intervalMinutes[sampleIndex(rng, p.intervalWeights)]
		ts = ts.Add(time.Duration(gap * float64(time.Minute)))
	}
	return events
}

// generateTitle renders a title in one of the styles seen for the category
// in the base profile.
func (s *Simulator) generateTitle(rng *rand.Rand, p *patterns, category string) string {
	styles := p.stylesByCategory[category]
	if len(styles) == 0 {
		return fmt.Sprintf("Simulated %s video", category)
	}
	switch styles[rng.Intn(len(styles))] {
	case styleCreatorContent:
		return fmt.Sprintf("Creator%d - Content%d", 1+rng.Intn(100), 1+rng.Intn(100))
	case styleSeriesEpisode:
		return fmt.Sprintf("Series%d EP.%d", 1+rng.Intn(20), 1+rng.Intn(50))
	case styleParentheses:
		return fmt.Sprintf("Title%d (Detail%d)", 1+rng.Intn(100), 1+rng.Intn(20))
	case styleBrackets:
		return fmt.Sprintf("Title%d [Info%d]", 1+rng.Intn(100), 1+rng.Intn(20))
	default:
		return fmt.Sprintf("Simple Title %d", 1+rng.Intn(1000))
	}
}

// sampleIndex draws an index proportionally to its weight. Weights need not
// sum to exactly 1; the draw normalizes over the actual total.
func sampleIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return rng.Intn(len(weights))
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}
