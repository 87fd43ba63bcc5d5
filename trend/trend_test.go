// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package trend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/viewlens/watch"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

func makeEvents(start time.Time, n int, spacing time.Duration) []watch.Event {
	events := make([]watch.Event, n)
	for i := range events {
		events[i] = watch.Event{
			Title:     fmt.Sprintf("video %d", i),
			URL:       fmt.Sprintf("https://example.com/%d-%d", start.Unix(), i),
			Timestamp: start.Add(time.Duration(i) * spacing),
			Channel:   "channel-a",
			Category:  "news",
		}
	}
	return events
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown period", func(c *Config) { c.Period = "hourly" }},
		{"empty period", func(c *Config) { c.Period = "" }},
		{"zero session gap", func(c *Config) { c.SessionGapMinutes = 0 }},
		{"zero change threshold", func(c *Config) { c.ChangeThresholdPercent = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewAnalyzer(cfg)
			var paramErr *watch.InvalidParameterError
			if !errors.As(err, &paramErr) {
				t.Fatalf("expected InvalidParameterError, got %v", err)
			}
		})
	}
}

func TestPeriodKey(t *testing.T) {
	a := &Analyzer{cfg: DefaultConfig()}
	tests := []struct {
		period Period
		ts     time.Time
		want   string
	}{
		{PeriodDaily, monday, "2025-03-03"},
		{PeriodWeekly, monday, "2025-03-03"},
		{PeriodWeekly, monday.AddDate(0, 0, 6), "2025-03-03"},  // sunday maps to its monday
		{PeriodWeekly, monday.AddDate(0, 0, 7), "2025-03-10"},  // next monday starts a new week
		{PeriodMonthly, monday, "2025-03"},
	}
	for _, tt := range tests {
		a.cfg.Period = tt.period
		if got := a.periodKey(tt.ts); got != tt.want {
			t.Errorf("periodKey(%s, %v) = %q, want %q", tt.period, tt.ts, got, tt.want)
		}
	}
}

func TestAnalyze_IncreasingTrend(t *testing.T) {
	// 1, 2, 3, 4, 5 videos on five consecutive days.
	var events []watch.Event
	for day := 0; day < 5; day++ {
		events = append(events, makeEvents(monday.AddDate(0, 0, day), day+1, time.Minute)...)
	}

	a, err := NewAnalyzer(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := a.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Timeframes) != 5 {
		t.Fatalf("timeframes = %v, want 5 days", report.Timeframes)
	}
	mt := report.Metrics[MetricVideoCount]
	if mt.Direction != DirectionIncreasing {
		t.Errorf("video_count direction = %v, want increasing", mt.Direction)
	}
	if math.Abs(mt.Strength-1) > 1e-9 {
		t.Errorf("video_count strength = %v, want 1 for a perfectly linear series", mt.Strength)
	}
	if math.Abs(mt.Significance-0.5) > 1e-9 {
		t.Errorf("video_count significance = %v, want 0.5 for 5 buckets", mt.Significance)
	}
	for _, m := range report.Summary.TrendingUp {
		if m == MetricVideoCount {
			return
		}
	}
	t.Error("video_count missing from summary trending_up")
}

func TestAnalyze_StableSeries(t *testing.T) {
	var events []watch.Event
	for day := 0; day < 4; day++ {
		events = append(events, makeEvents(monday.AddDate(0, 0, day), 3, time.Minute)...)
	}

	a, _ := NewAnalyzer(DefaultConfig())
	report, err := a.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mt := report.Metrics[MetricVideoCount]
	if mt.Direction != DirectionStable {
		t.Errorf("direction = %v, want stable for a constant series", mt.Direction)
	}
	if mt.Strength != 0 {
		t.Errorf("strength = %v, want 0 for a flat series", mt.Strength)
	}
	if len(report.Changes) != 0 {
		t.Errorf("changes = %v, want none", report.Changes)
	}
}

func TestAnalyze_SignificantChange(t *testing.T) {
	events := makeEvents(monday, 2, time.Minute)
	events = append(events, makeEvents(monday.AddDate(0, 0, 1), 10, time.Minute)...)

	a, _ := NewAnalyzer(DefaultConfig())
	report, err := a.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Changes) != 1 {
		t.Fatalf("changes = %v, want exactly one (video_count 2 -> 10)", report.Changes)
	}
	ch := report.Changes[0]
	if ch.Metric != MetricVideoCount {
		t.Errorf("change metric = %v, want video_count", ch.Metric)
	}
	if ch.Timeframe != "2025-03-04" {
		t.Errorf("change timeframe = %q, want 2025-03-04", ch.Timeframe)
	}
	if ch.FromValue != 2 || ch.ToValue != 10 {
		t.Errorf("change values = %v -> %v, want 2 -> 10", ch.FromValue, ch.ToValue)
	}
	if math.Abs(ch.ChangePercent-400) > 1e-9 {
		t.Errorf("change percent = %v, want 400", ch.ChangePercent)
	}
	if report.Summary.ChangesDetected != 1 {
		t.Errorf("summary changes = %d, want 1", report.Summary.ChangesDetected)
	}
}

func TestAnalyze_SessionCount(t *testing.T) {
	// Two runs within one day separated by a 2-hour gap.
	events := makeEvents(monday, 3, time.Minute)
	events = append(events, makeEvents(monday.Add(3*time.Hour), 2, time.Minute)...)

	a, _ := NewAnalyzer(DefaultConfig())
	report, err := a.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mt := report.Metrics[MetricSessionCount]
	if len(mt.Values) != 1 || mt.Values[0] != 2 {
		t.Errorf("session_count values = %v, want [2]", mt.Values)
	}
}

func TestAnalyze_DurationMetrics(t *testing.T) {
	d := func(s float64) *float64 { return &s }
	events := []watch.Event{
		{Title: "a", URL: "u1", Timestamp: monday, DurationSeconds: d(600)},
		{Title: "b", URL: "u2", Timestamp: monday.Add(time.Hour), DurationSeconds: d(1200)},
	}

	a, _ := NewAnalyzer(DefaultConfig())
	report, err := a.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := report.Metrics[MetricTotalDuration].Values[0]; got != 1800 {
		t.Errorf("total_duration = %v, want 1800", got)
	}
	if got := report.Metrics[MetricAvgDuration].Values[0]; got != 900 {
		t.Errorf("avg_duration = %v, want 900", got)
	}
	// 2 videos over half an hour of content: 4 videos per content-hour.
	if got := report.Metrics[MetricViewingVelocity].Values[0]; got != 4 {
		t.Errorf("viewing_velocity = %v, want 4", got)
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a, _ := NewAnalyzer(DefaultConfig())
	report, err := a.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty input must not error, got %v", err)
	}
	if report.Period != PeriodDaily {
		t.Errorf("period = %v, want daily", report.Period)
	}
	if len(report.Timeframes) != 0 || len(report.Metrics) != 0 || len(report.Changes) != 0 {
		t.Errorf("expected zero-valued report, got %+v", report)
	}
	if !report.DateRange.Start.IsZero() || !report.DateRange.End.IsZero() {
		t.Errorf("date range = %+v, want zero times", report.DateRange)
	}
}

func TestAnalyze_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, _ := NewAnalyzer(DefaultConfig())
	_, err := a.Analyze(ctx, makeEvents(monday, 5, time.Minute))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRegressionSlope(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"perfect line", []float64{1, 2, 3, 4, 5}, 1},
		{"flat", []float64{3, 3, 3}, 0},
		{"descending", []float64{10, 8, 6}, -2},
		{"too short", []float64{7}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := regressionSlope(tt.values); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("regressionSlope(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestIndexCorrelation(t *testing.T) {
	if got := indexCorrelation([]float64{1, 2, 3, 4}); math.Abs(got-1) > 1e-9 {
		t.Errorf("correlation of a perfect ascending line = %v, want 1", got)
	}
	if got := indexCorrelation([]float64{4, 3, 2, 1}); math.Abs(got+1) > 1e-9 {
		t.Errorf("correlation of a perfect descending line = %v, want -1", got)
	}
	if got := indexCorrelation([]float64{5, 5, 5}); got != 0 {
		t.Errorf("correlation of a flat line = %v, want 0", got)
	}
}
