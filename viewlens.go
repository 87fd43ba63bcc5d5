// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package viewlens analyzes watch histories. It clusters similar videos,
// scores manipulation and anomaly signals, and measures suppression of a
// baseline viewing pattern, all from the same immutable, time-sorted event
// sequence.
//
// The three analysis paths are independent pure functions of that sequence
// and run concurrently. Each path runs under a retry-and-circuit-breaker
// policy; validation errors surface immediately and are never retried.
package viewlens

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/viewlens/cluster"
	"github.com/tomtom215/viewlens/config"
	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/metrics"
	"github.com/tomtom215/viewlens/profile"
	"github.com/tomtom215/viewlens/recovery"
	"github.com/tomtom215/viewlens/simulate"
	"github.com/tomtom215/viewlens/suppression"
	"github.com/tomtom215/viewlens/trend"
	"github.com/tomtom215/viewlens/watch"
)

// Report is the combined result of one analysis run.
type Report struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// GeneratedAt is when the run completed.
	GeneratedAt time.Time `json:"generated_at"`

	Clustering  *cluster.Result     `json:"clustering"`
	Patterns    *profile.Report     `json:"patterns"`
	Suppression *suppression.Report `json:"suppression"`

	// Warnings lists entries dropped during normalization, shared by all
	// three paths.
	Warnings []watch.Warning `json:"warnings,omitempty"`
}

// Analyzer runs the full analysis pipeline. It is immutable after
// construction and safe for concurrent use; breaker state persists across
// runs per path.
type Analyzer struct {
	cfg config.Config

	profiler   *profile.Profiler
	calculator *suppression.Calculator
	trender    *trend.Analyzer
	simulator  *simulate.Simulator

	clusterRunner     *recovery.Runner
	patternRunner     *recovery.Runner
	suppressionRunner *recovery.Runner
}

// New validates the configuration, applies its logging settings, and builds
// an analyzer.
func New(cfg config.Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)

	profiler, err := profile.NewProfiler(cfg.Profile)
	if err != nil {
		return nil, err
	}
	calculator, err := suppression.NewCalculator(cfg.Suppression)
	if err != nil {
		return nil, err
	}
	trender, err := trend.NewAnalyzer(cfg.Trend)
	if err != nil {
		return nil, err
	}
	simulator, err := simulate.NewSimulator(cfg.Simulate)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:        cfg,
		profiler:   profiler,
		calculator: calculator,
		trender:    trender,
		simulator:  simulator,
	}
	for name, dst := range map[string]**recovery.Runner{
		"clustering":  &a.clusterRunner,
		"patterns":    &a.patternRunner,
		"suppression": &a.suppressionRunner,
	} {
		runner, err := recovery.NewRunner(name, cfg.Recovery)
		if err != nil {
			return nil, err
		}
		*dst = runner
	}
	return a, nil
}

// Run executes clustering, pattern detection, and suppression analysis
// concurrently over the same normalized sequence. An empty history yields a
// report whose sub-results are zero-valued and well-formed.
//
// Topic shifts in the pattern report use category boundaries; callers who
// want cluster-aware shifts can feed Run's clustering assignments to
// profile.Profiler.AnalyzeWithClusters afterwards.
func (a *Analyzer) Run(ctx context.Context, events []watch.Event) (*Report, error) {
	sorted, warnings, err := watch.Normalize(events)
	if err != nil {
		return nil, err
	}
	metrics.RecordDropped(len(warnings))

	report := &Report{
		ID:       uuid.New().String(),
		Warnings: warnings,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.observe(gctx, a.clusterRunner, "clustering", len(sorted), func(ctx context.Context) error {
			result, err := cluster.ClusterEvents(ctx, sorted, a.cfg.Cluster)
			if err != nil {
				return err
			}
			metrics.RecordClusters(len(result.Clusters))
			report.Clustering = result
			return nil
		})
	})
	g.Go(func() error {
		return a.observe(gctx, a.patternRunner, "patterns", len(sorted), func(ctx context.Context) error {
			result, err := a.profiler.Analyze(ctx, sorted)
			if err != nil {
				return err
			}
			metrics.RecordRiskScore(result.RiskScore)
			report.Patterns = result
			return nil
		})
	})
	g.Go(func() error {
		return a.observe(gctx, a.suppressionRunner, "suppression", len(sorted), func(ctx context.Context) error {
			result, err := a.calculator.Calculate(ctx, sorted)
			if err != nil {
				return err
			}
			report.Suppression = result
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.GeneratedAt = time.Now().UTC()
	return report, nil
}

// observe runs one path under its recovery policy and records its metrics.
func (a *Analyzer) observe(ctx context.Context, runner *recovery.Runner, path string, events int, op func(context.Context) error) error {
	start := time.Now()
	err := runner.Do(ctx, op)
	metrics.RecordRun(path, time.Since(start), events, err)
	return err
}

// Trends buckets the history into calendar periods and fits per-metric
// trends.
func (a *Analyzer) Trends(ctx context.Context, events []watch.Event) (*trend.Report, error) {
	start := time.Now()
	report, err := a.trender.Analyze(ctx, events)
	metrics.RecordRun("trend", time.Since(start), len(events), err)
	return report, err
}

// Simulate generates a synthetic history with the statistical texture of
// the base profile.
func (a *Analyzer) Simulate(ctx context.Context, base []watch.Event) ([]watch.Event, error) {
	start := time.Now()
	generated, err := a.simulator.Simulate(ctx, base)
	metrics.RecordRun("simulate", time.Since(start), len(generated), err)
	return generated, err
}
