// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package profile detects manipulation and anomaly signals in a watch-event
// sequence and aggregates them into a normalized risk score.
//
// Five independent detectors (rapid viewing, binge sessions, anomalous
// sessions, language switches, topic shifts) share a uniform Detector
// contract over the same immutable, time-sorted sequence. The aggregation is
// a weighted count ratio: risk = clip(Σ weight_k × count_k / total_events,
// 0, 1); this is one of several defensible aggregations, chosen for being
// deterministic and directly explainable from the finding counts.
package profile

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	"github.com/tomtom215/viewlens/cluster"
	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/watch"
)

// Profiler runs the five pattern detectors and aggregates their findings.
// A Profiler is immutable after construction and safe for concurrent use.
type Profiler struct {
	cfg       Config
	detectors []Detector
}

// NewProfiler validates the configuration and builds the detector set.
func NewProfiler(cfg Config) (*Profiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Profiler{
		cfg: cfg,
		detectors: []Detector{
			NewRapidViewingDetector(cfg.RapidThresholdSeconds),
			NewBingeDetector(cfg.SessionGapSeconds, cfg.MinSessionLength),
			NewAnomalousSessionDetector(cfg.SessionGapSeconds, cfg.DeviationK),
			NewLanguageSwitchDetector(),
			NewTopicShiftDetector(cfg.TopicShiftThreshold),
		},
	}, nil
}

// Analyze normalizes the events and runs all detectors. Topic shifts fall
// back to category boundaries; use AnalyzeWithClusters to detect shifts
// against clustering output instead.
//
// Fewer than 2 valid events yields an empty report with RiskScore exactly 0,
// never an error: a short history has no adjacent pairs to flag.
func (p *Profiler) Analyze(ctx context.Context, events []watch.Event) (*Report, error) {
	return p.analyze(ctx, events, nil)
}

// AnalyzeWithClusters runs the same analysis with per-event cluster
// assignments (as produced by cluster.ClusterEvents over the identical
// normalized sequence) informing the topic-shift boundary.
func (p *Profiler) AnalyzeWithClusters(ctx context.Context, events []watch.Event, assignments []int) (*Report, error) {
	return p.analyze(ctx, events, assignments)
}

func (p *Profiler) analyze(ctx context.Context, events []watch.Event, assignments []int) (*Report, error) {
	sorted, warnings, err := watch.Normalize(events)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RiskLevel:   RiskLow,
		TotalEvents: len(sorted),
		Warnings:    warnings,
	}
	if len(sorted) < 2 {
		return report, nil
	}
	if assignments != nil && len(assignments) != len(sorted) {
		return nil, watch.NewInvalidParameter("assignments",
			"length %d does not match %d normalized events", len(assignments), len(sorted))
	}

	seq, err := buildSequence(sorted, assignments)
	if err != nil {
		return nil, err
	}

	for _, detector := range p.detectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		findings := detector.Detect(seq)
		if p.cfg.MinConfidence > 0 {
			findings = filterConfidence(findings, p.cfg.MinConfidence)
		}
		*report.Signals.byKind(detector.Kind()) = findings
	}

	report.RiskScore = p.aggregate(&report.Signals, len(sorted))
	report.RiskLevel = BandFor(report.RiskScore)

	logging.Debug().
		Int("events", len(sorted)).
		Float64("risk_score", report.RiskScore).
		Str("risk_level", string(report.RiskLevel)).
		Msg("pattern analysis complete")

	return report, nil
}

// aggregate computes clip(Σ weight_k × count_k / total, 0, 1). Kinds missing
// from the weight map contribute nothing.
func (p *Profiler) aggregate(signals *Signals, total int) float64 {
	if total == 0 {
		return 0
	}
	var score float64
	for _, kind := range Kinds() {
		weight, ok := p.cfg.Weights[kind]
		if !ok {
			continue
		}
		score += weight * float64(signals.Count(kind)) / float64(total)
	}
	return clip(score, 0, 1)
}

// buildSequence derives the per-event signals the detectors need: TF-IDF
// title vectors and language tags. A corpus with no informative tokens is
// represented by zero vectors rather than an error; zero vectors have
// maximal cosine distance to everything, which is the right degenerate
// behavior for topic shifts.
func buildSequence(events []watch.Event, assignments []int) (*Sequence, error) {
	vectors, err := cluster.NewVectorizer().FitTransform(watch.Titles(events))
	if err != nil {
		var entryErr *watch.InvalidEntryError
		if !errors.As(err, &entryErr) {
			return nil, err
		}
		vectors = make([]cluster.Vector, len(events))
	}

	languages := make([]language.Tag, len(events))
	for i, ev := range events {
		languages[i] = DetectLanguage(ev.Title)
	}

	return &Sequence{
		Events:      events,
		Vectors:     vectors,
		Assignments: assignments,
		Languages:   languages,
	}, nil
}

func filterConfidence(findings []Finding, min float64) []Finding {
	kept := findings[:0:0]
	for _, f := range findings {
		if f.Confidence >= min {
			kept = append(kept, f)
		}
	}
	return kept
}
