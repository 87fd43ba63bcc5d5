// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package suppression compares a baseline period of a watch history against
// a later analysis period and quantifies drops in viewing frequency, both
// overall and per content category.
//
// A suppression index of 1−(analysis rate / baseline rate) reads as: positive
// values mean the analysis period saw less of something than the baseline
// did; zero means no change; negative values mean an increase.
package suppression

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/watch"
)

// Config holds the suppression-analysis parameters.
type Config struct {
	// BaselinePeriodDays is the period length used to turn view counts into
	// velocities, and the window size for SplitBaselineWindow.
	BaselinePeriodDays int `koanf:"baseline_period_days" json:"baseline_period_days" validate:"gt=0"`

	// Threshold marks a category suppression value as significant. The
	// calculator reports raw indices; callers apply the threshold via
	// Report.SuppressedCategories.
	Threshold float64 `koanf:"threshold" json:"threshold" validate:"gte=0,lte=1"`
}

// DefaultConfig returns a 30-day baseline with a 0.5 significance threshold.
func DefaultConfig() Config {
	return Config{
		BaselinePeriodDays: 30,
		Threshold:          0.5,
	}
}

// Validate fails fast with an InvalidParameterError on malformed parameters.
func (c Config) Validate() error {
	if c.BaselinePeriodDays <= 0 {
		return watch.NewInvalidParameter("baseline_period_days", "must be > 0, got %d", c.BaselinePeriodDays)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return watch.NewInvalidParameter("threshold", "must be in [0,1], got %v", c.Threshold)
	}
	return nil
}

// PeriodMetrics summarizes one period of the split history.
type PeriodMetrics struct {
	// TotalViews is the event count in the period.
	TotalViews int `json:"total_views"`

	// UniqueChannels is the number of distinct channel values.
	UniqueChannels int `json:"unique_channels"`

	// CategoryDistribution maps category to its fraction of the period's
	// views. Fractions sum to 1 for a non-empty period; the map is empty,
	// never nil, for an empty one.
	CategoryDistribution map[string]float64 `json:"category_distribution"`

	// ViewVelocity is views per day over the configured baseline period
	// length, so both periods are measured on the same footing.
	ViewVelocity float64 `json:"view_velocity"`
}

// WeeklyPattern is one bucket of the temporal suppression series: a 7-day
// window counted from the earliest event.
type WeeklyPattern struct {
	WeekStart time.Time `json:"week_start"`
	Views     int       `json:"views"`

	// Velocity is views per day within the week.
	Velocity float64 `json:"velocity"`

	// Suppression is the week's velocity measured against the baseline
	// period's velocity, 0 when the baseline velocity is 0.
	Suppression float64 `json:"suppression"`
}

// Report is the full suppression-analysis result.
type Report struct {
	// OverallSuppression is 1 − analysis velocity / baseline velocity,
	// or exactly 0 when the baseline velocity is 0.
	OverallSuppression float64 `json:"overall_suppression"`

	// CategorySuppression carries one index per category present in the
	// baseline distribution. Categories first appearing in the analysis
	// period are omitted: with no baseline presence there is no prior
	// frequency to measure a drop against.
	CategorySuppression map[string]float64 `json:"category_suppression"`

	// TemporalPatterns is the weekly suppression series over the whole
	// history, earliest week first.
	TemporalPatterns []WeeklyPattern `json:"temporal_patterns"`

	BaselineMetrics PeriodMetrics `json:"baseline_metrics"`
	AnalysisMetrics PeriodMetrics `json:"analysis_metrics"`

	// Warnings lists entries dropped during normalization.
	Warnings []watch.Warning `json:"warnings,omitempty"`
}

// SuppressedCategories returns the categories whose suppression index meets
// or exceeds the threshold, sorted for stable output.
func (r *Report) SuppressedCategories(threshold float64) []string {
	var cats []string
	for cat, idx := range r.CategorySuppression {
		if idx >= threshold {
			cats = append(cats, cat)
		}
	}
	sort.Strings(cats)
	return cats
}

// Calculator splits a history into baseline and analysis periods and derives
// suppression indices. It is immutable after construction and safe for
// concurrent use.
type Calculator struct {
	cfg   Config
	split SplitPolicy
}

// NewCalculator builds a calculator with the midpoint split policy.
func NewCalculator(cfg Config) (*Calculator, error) {
	return NewCalculatorWithSplit(cfg, SplitMidpoint())
}

// NewCalculatorWithSplit builds a calculator with an explicit split policy.
// Policies with parameters of their own are validated here, so a malformed
// policy fails at construction rather than silently skewing the split.
func NewCalculatorWithSplit(cfg Config, policy SplitPolicy) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, watch.NewInvalidParameter("split_policy", "must not be nil")
	}
	if v, ok := policy.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	return &Calculator{cfg: cfg, split: policy}, nil
}

// Calculate normalizes the events, splits them, and computes the suppression
// report. An empty history yields a zero-valued, well-formed report: empty
// maps, no temporal buckets, all indices 0.
func (c *Calculator) Calculate(ctx context.Context, events []watch.Event) (*Report, error) {
	sorted, warnings, err := watch.Normalize(events)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boundary := c.split.Split(sorted)
	baseline := c.periodMetrics(sorted[:boundary])
	analysis := c.periodMetrics(sorted[boundary:])

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		OverallSuppression:  OverallSuppression(baseline, analysis),
		CategorySuppression: categorySuppression(baseline, analysis),
		TemporalPatterns:    c.weeklyPatterns(sorted, baseline.ViewVelocity),
		BaselineMetrics:     baseline,
		AnalysisMetrics:     analysis,
		Warnings:            warnings,
	}

	logging.Debug().
		Str("split", c.split.Name()).
		Int("baseline_views", baseline.TotalViews).
		Int("analysis_views", analysis.TotalViews).
		Float64("overall_suppression", report.OverallSuppression).
		Msg("suppression analysis complete")

	return report, nil
}

// OverallSuppression computes 1 − analysis velocity / baseline velocity.
// A baseline velocity of 0 means there is nothing to be suppressed from;
// the index is reported as exactly 0, not as a detected absence.
func OverallSuppression(baseline, analysis PeriodMetrics) float64 {
	if baseline.ViewVelocity == 0 {
		return 0.0
	}
	return 1.0 - analysis.ViewVelocity/baseline.ViewVelocity
}

// categorySuppression scores every baseline category against its analysis
// share. The key set always equals the baseline distribution's key set.
func categorySuppression(baseline, analysis PeriodMetrics) map[string]float64 {
	indices := make(map[string]float64, len(baseline.CategoryDistribution))
	for cat, baseFreq := range baseline.CategoryDistribution {
		if baseFreq == 0 {
			indices[cat] = 0.0
			continue
		}
		indices[cat] = 1.0 - analysis.CategoryDistribution[cat]/baseFreq
	}
	return indices
}

func (c *Calculator) periodMetrics(events []watch.Event) PeriodMetrics {
	channels := make(map[string]struct{})
	distribution := make(map[string]float64)
	for _, ev := range events {
		channels[ev.Channel] = struct{}{}
		distribution[ev.Category]++
	}
	if total := float64(len(events)); total > 0 {
		for cat := range distribution {
			distribution[cat] /= total
		}
	}
	return PeriodMetrics{
		TotalViews:           len(events),
		UniqueChannels:       len(channels),
		CategoryDistribution: distribution,
		ViewVelocity:         float64(len(events)) / float64(c.cfg.BaselinePeriodDays),
	}
}

const daysPerWeek = 7

// weeklyPatterns buckets the whole history into 7-day windows from the
// earliest event and scores each window's velocity against the baseline
// period's. Empty weeks between the first and last event are included so
// the series is contiguous.
func (c *Calculator) weeklyPatterns(events []watch.Event, baselineVelocity float64) []WeeklyPattern {
	if len(events) == 0 {
		return nil
	}

	start := events[0].Timestamp
	span := events[len(events)-1].Timestamp.Sub(start)
	weeks := int(span/(daysPerWeek*24*time.Hour)) + 1

	counts := make([]int, weeks)
	for _, ev := range events {
		idx := int(ev.Timestamp.Sub(start) / (daysPerWeek * 24 * time.Hour))
		counts[idx]++
	}

	patterns := make([]WeeklyPattern, weeks)
	for i, n := range counts {
		velocity := float64(n) / daysPerWeek
		suppr := 0.0
		if baselineVelocity > 0 {
			suppr = 1.0 - velocity/baselineVelocity
		}
		patterns[i] = WeeklyPattern{
			WeekStart:   start.Add(time.Duration(i) * daysPerWeek * 24 * time.Hour),
			Views:       n,
			Velocity:    velocity,
			Suppression: suppr,
		}
	}
	return patterns
}
