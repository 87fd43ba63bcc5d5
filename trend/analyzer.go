// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package trend

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/watch"
)

// Analyzer derives per-period metric series and their trends. It is
// immutable after construction and safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer validates the configuration and builds an analyzer.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Analyze buckets the normalized history into calendar periods, derives the
// metric series, and fits a trend to each. An empty history yields a
// zero-valued, well-formed report.
func (a *Analyzer) Analyze(ctx context.Context, events []watch.Event) (*Report, error) {
	sorted, warnings, err := watch.Normalize(events)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Period:   a.cfg.Period,
		Metrics:  make(map[Metric]MetricTrend),
		Warnings: warnings,
	}
	if len(sorted) == 0 {
		return report, nil
	}
	report.DateRange = DateRange{
		Start: sorted[0].Timestamp,
		End:   sorted[len(sorted)-1].Timestamp,
	}

	buckets := a.bucket(sorted)
	report.Timeframes = make([]string, len(buckets))
	for i, b := range buckets {
		report.Timeframes[i] = b.key
	}

	series := a.series(buckets)
	for _, metric := range Metrics() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mt := fitTrend(metric, series[metric])
		report.Metrics[metric] = mt
		report.Changes = append(report.Changes, a.detectChanges(mt, report.Timeframes)...)
	}
	report.Summary = summarize(report.Metrics, len(report.Changes))

	logging.Debug().
		Str("period", string(a.cfg.Period)).
		Int("buckets", len(buckets)).
		Int("significant_changes", len(report.Changes)).
		Msg("trend analysis complete")

	return report, nil
}

type bucket struct {
	key    string
	events []watch.Event
}

// bucket groups the sorted events by calendar period. Events arrive sorted,
// so each period's slice is contiguous and the bucket order is already
// chronological.
func (a *Analyzer) bucket(events []watch.Event) []bucket {
	var buckets []bucket
	for _, ev := range events {
		key := a.periodKey(ev.Timestamp)
		if n := len(buckets); n > 0 && buckets[n-1].key == key {
			buckets[n-1].events = append(buckets[n-1].events, ev)
			continue
		}
		buckets = append(buckets, bucket{key: key, events: []watch.Event{ev}})
	}
	return buckets
}

// periodKey renders the bucket label: the day, the Monday of the week, or
// the month the timestamp falls in.
func (a *Analyzer) periodKey(ts time.Time) string {
	switch a.cfg.Period {
	case PeriodWeekly:
		offset := (int(ts.Weekday()) + 6) % 7
		return ts.AddDate(0, 0, -offset).Format("2006-01-02")
	case PeriodMonthly:
		return ts.Format("2006-01")
	default:
		return ts.Format("2006-01-02")
	}
}

// series derives every metric's value for every bucket.
func (a *Analyzer) series(buckets []bucket) map[Metric][]float64 {
	series := make(map[Metric][]float64, len(Metrics()))
	for _, b := range buckets {
		channels := make(map[string]struct{})
		categories := make(map[string]struct{})
		var totalDuration float64
		for _, ev := range b.events {
			channels[ev.Channel] = struct{}{}
			categories[ev.Category] = struct{}{}
			if ev.DurationSeconds != nil {
				totalDuration += *ev.DurationSeconds
			}
		}

		count := float64(len(b.events))
		avgDuration := 0.0
		if count > 0 {
			avgDuration = totalDuration / count
		}
		// Videos per hour of watched content, 0 when durations are absent.
		velocity := 0.0
		if totalDuration > 0 {
			velocity = count / (totalDuration / 3600)
		}

		series[MetricVideoCount] = append(series[MetricVideoCount], count)
		series[MetricTotalDuration] = append(series[MetricTotalDuration], totalDuration)
		series[MetricAvgDuration] = append(series[MetricAvgDuration], avgDuration)
		series[MetricUniqueChannels] = append(series[MetricUniqueChannels], float64(len(channels)))
		series[MetricCategoryDiversity] = append(series[MetricCategoryDiversity], float64(len(categories)))
		series[MetricViewingVelocity] = append(series[MetricViewingVelocity], velocity)
		series[MetricSessionCount] = append(series[MetricSessionCount], float64(a.countSessions(b.events)))
	}
	return series
}

// countSessions counts runs of views separated by gaps above the configured
// session gap. Bucket events are already time-sorted.
func (a *Analyzer) countSessions(events []watch.Event) int {
	if len(events) == 0 {
		return 0
	}
	sessions := 1
	gap := time.Duration(a.cfg.SessionGapMinutes * float64(time.Minute))
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Sub(events[i-1].Timestamp) > gap {
			sessions++
		}
	}
	return sessions
}

// fitTrend fits a least-squares line to the series and classifies it.
// Series shorter than 2 buckets are stable with zero strength.
func fitTrend(name Metric, values []float64) MetricTrend {
	mt := MetricTrend{
		Name:      name,
		Values:    values,
		Direction: DirectionStable,
	}
	if len(values) < 2 {
		return mt
	}

	slope := regressionSlope(values)
	strength := 0.0
	if len(values) > 2 {
		strength = math.Abs(indexCorrelation(values))
	}

	// A slope smaller than a tenth of the spread is noise, not a trend.
	threshold := stdDev(values) * 0.1
	if threshold == 0 {
		threshold = 0.01
	}
	switch {
	case math.Abs(slope) < threshold:
		mt.Direction = DirectionStable
	case slope > 0:
		mt.Direction = DirectionIncreasing
	default:
		mt.Direction = DirectionDecreasing
	}

	mt.Strength = strength
	mt.Significance = math.Min(1, strength*float64(len(values))/10)
	return mt
}

// detectChanges flags bucket-over-bucket jumps beyond the threshold. A zero
// previous value cannot be expressed as a percentage and is skipped.
func (a *Analyzer) detectChanges(mt MetricTrend, timeframes []string) []Change {
	var changes []Change
	for i := 1; i < len(mt.Values); i++ {
		prev, curr := mt.Values[i-1], mt.Values[i]
		if prev == 0 {
			continue
		}
		pct := (curr - prev) / prev * 100
		if math.Abs(pct) > a.cfg.ChangeThresholdPercent {
			changes = append(changes, Change{
				Metric:        mt.Name,
				Timeframe:     timeframes[i],
				FromValue:     prev,
				ToValue:       curr,
				ChangePercent: pct,
			})
		}
	}
	return changes
}

// summarize groups metrics by direction and ranks the strongest trends.
func summarize(trends map[Metric]MetricTrend, changeCount int) Summary {
	s := Summary{
		MetricsAnalyzed: len(trends),
		ChangesDetected: changeCount,
	}
	ranked := make([]Metric, 0, len(trends))
	for _, metric := range Metrics() {
		mt, ok := trends[metric]
		if !ok {
			continue
		}
		ranked = append(ranked, metric)
		switch mt.Direction {
		case DirectionIncreasing:
			s.TrendingUp = append(s.TrendingUp, metric)
		case DirectionDecreasing:
			s.TrendingDown = append(s.TrendingDown, metric)
		default:
			s.Stable = append(s.Stable, metric)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return trends[ranked[i]].Strength > trends[ranked[j]].Strength
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	s.Strongest = ranked
	return s
}
