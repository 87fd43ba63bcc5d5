// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package trend buckets a watch history into calendar periods and fits a
// linear trend to each per-period metric, flagging sudden bucket-over-bucket
// changes along the way.
package trend

import (
	"time"

	"github.com/tomtom215/viewlens/watch"
)

// Period selects the bucketing granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Metric names one per-period series the analyzer derives.
type Metric string

const (
	MetricVideoCount        Metric = "video_count"
	MetricTotalDuration     Metric = "total_duration"
	MetricAvgDuration       Metric = "avg_duration"
	MetricUniqueChannels    Metric = "unique_channels"
	MetricCategoryDiversity Metric = "category_diversity"
	MetricViewingVelocity   Metric = "viewing_velocity"
	MetricSessionCount      Metric = "session_count"
)

// Metrics lists every derived series in reporting order.
func Metrics() []Metric {
	return []Metric{
		MetricVideoCount,
		MetricTotalDuration,
		MetricAvgDuration,
		MetricUniqueChannels,
		MetricCategoryDiversity,
		MetricViewingVelocity,
		MetricSessionCount,
	}
}

// Direction classifies a fitted trend.
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Config holds the trend-analysis parameters.
type Config struct {
	// Period is the bucketing granularity: daily, weekly or monthly.
	Period Period `koanf:"period" json:"period" validate:"oneof=daily weekly monthly"`

	// SessionGapMinutes is the maximal intra-session gap when counting
	// viewing sessions within a bucket.
	SessionGapMinutes float64 `koanf:"session_gap_minutes" json:"session_gap_minutes" validate:"gt=0"`

	// ChangeThresholdPercent is the bucket-over-bucket change magnitude
	// flagged as significant.
	ChangeThresholdPercent float64 `koanf:"change_threshold_percent" json:"change_threshold_percent" validate:"gt=0"`
}

// DefaultConfig returns daily bucketing with a 30-minute session gap and a
// 50% change threshold.
func DefaultConfig() Config {
	return Config{
		Period:                 PeriodDaily,
		SessionGapMinutes:      30,
		ChangeThresholdPercent: 50,
	}
}

// Validate fails fast with an InvalidParameterError on malformed parameters.
func (c Config) Validate() error {
	switch c.Period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return watch.NewInvalidParameter("period", "must be daily, weekly or monthly, got %q", c.Period)
	}
	if c.SessionGapMinutes <= 0 {
		return watch.NewInvalidParameter("session_gap_minutes", "must be > 0, got %v", c.SessionGapMinutes)
	}
	if c.ChangeThresholdPercent <= 0 {
		return watch.NewInvalidParameter("change_threshold_percent", "must be > 0, got %v", c.ChangeThresholdPercent)
	}
	return nil
}

// MetricTrend is the fitted trend of one metric series.
type MetricTrend struct {
	Name Metric `json:"name"`

	// Values holds one value per timeframe, chronological order.
	Values []float64 `json:"values"`

	// Direction compares the regression slope against a tenth of the
	// series' standard deviation: smaller slopes read as stable.
	Direction Direction `json:"trend_direction"`

	// Strength is the absolute Pearson correlation of value against
	// bucket index, 0 for series too short or flat to correlate.
	Strength float64 `json:"trend_strength"`

	// Significance is min(1, strength × buckets / 10): a weak trend over
	// many buckets can still be significant, a strong one over few is not.
	Significance float64 `json:"statistical_significance"`
}

// Change is a bucket-over-bucket jump beyond the configured threshold.
type Change struct {
	Metric        Metric  `json:"metric"`
	Timeframe     string  `json:"timeframe"`
	FromValue     float64 `json:"from_value"`
	ToValue       float64 `json:"to_value"`
	ChangePercent float64 `json:"change_percentage"`
}

// Summary condenses the per-metric trends.
type Summary struct {
	MetricsAnalyzed int      `json:"total_metrics_analyzed"`
	ChangesDetected int      `json:"significant_changes_detected"`
	TrendingUp      []Metric `json:"trending_up"`
	TrendingDown    []Metric `json:"trending_down"`
	Stable          []Metric `json:"stable_metrics"`

	// Strongest lists up to three metrics by descending trend strength.
	Strongest []Metric `json:"strongest_trends"`
}

// DateRange is the inclusive timestamp span of the analyzed history.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Report is the full trend-analysis result.
type Report struct {
	Period     Period                 `json:"period_type"`
	Timeframes []string               `json:"timeframes"`
	Metrics    map[Metric]MetricTrend `json:"metrics"`
	Changes    []Change               `json:"significant_changes"`
	Summary    Summary                `json:"summary"`
	DateRange  DateRange              `json:"date_range"`

	// Warnings lists entries dropped during normalization.
	Warnings []watch.Warning `json:"warnings,omitempty"`
}
