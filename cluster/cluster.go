// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package cluster groups watch events into content clusters by density-based
// clustering (DBSCAN) over TF-IDF title vectors with cosine distance.
//
// Results are value objects computed fresh per invocation; the input sequence
// is never mutated and clusters are immutable once returned.
package cluster

import (
	"context"
	"sort"

	"github.com/tomtom215/viewlens/logging"
	"github.com/tomtom215/viewlens/watch"
)

// Config holds the clustering parameters.
type Config struct {
	// Eps is the cosine-distance neighborhood radius. Must be > 0.
	Eps float64 `koanf:"eps" json:"eps" validate:"gt=0"`

	// MinSamples is the core-point density threshold, self included.
	// Must be >= 1.
	MinSamples int `koanf:"min_samples" json:"min_samples" validate:"gte=1"`

	// ThemeTerms is how many tokens make up a cluster's dominant theme.
	ThemeTerms int `koanf:"theme_terms" json:"theme_terms" validate:"gte=1"`

	// KeywordTerms is how many top keywords each cluster reports.
	KeywordTerms int `koanf:"keyword_terms" json:"keyword_terms" validate:"gte=1"`
}

// DefaultConfig returns the clustering defaults. Eps and MinSamples follow
// the values the analysis was tuned with for title-length documents.
func DefaultConfig() Config {
	return Config{
		Eps:          0.3,
		MinSamples:   5,
		ThemeTerms:   5,
		KeywordTerms: 10,
	}
}

// Validate checks the parameter constraints, failing fast with an
// InvalidParameterError before any processing.
func (c Config) Validate() error {
	if c.Eps <= 0 {
		return watch.NewInvalidParameter("eps", "must be > 0, got %v", c.Eps)
	}
	if c.MinSamples < 1 {
		return watch.NewInvalidParameter("min_samples", "must be >= 1, got %d", c.MinSamples)
	}
	return nil
}

// Characteristics summarizes the member events of a cluster.
type Characteristics struct {
	// AvgDurationSeconds is the mean duration of members that carry one.
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`

	// HourHistogram counts member events per hour of day.
	HourHistogram [24]int `json:"hour_histogram"`

	// TopKeywords are the most frequent informative tokens among member
	// titles, most frequent first, ties broken lexically ascending.
	TopKeywords []string `json:"top_keywords"`
}

// Cluster is one content cluster. MemberIndices reference positions in the
// normalized, time-sorted event sequence and are disjoint across clusters.
type Cluster struct {
	ID              int             `json:"id"`
	Size            int             `json:"size"`
	MemberIndices   []int           `json:"member_indices"`
	DominantTheme   []string        `json:"dominant_theme"`
	Characteristics Characteristics `json:"characteristics"`
}

// Result is the full clustering output.
type Result struct {
	// Assignments maps each normalized event index to a cluster id or Noise.
	Assignments []int `json:"assignments"`

	// Clusters are the non-noise clusters ordered by id.
	Clusters []Cluster `json:"clusters"`

	// NoiseCount is the number of events labeled Noise.
	NoiseCount int `json:"noise_count"`

	// Events is the normalized, time-sorted sequence the indices refer to.
	Events []watch.Event `json:"-"`

	// Warnings lists entries dropped during normalization.
	Warnings []watch.Warning `json:"warnings,omitempty"`
}

// ClusterEvents validates parameters, normalizes the event sequence, builds
// TF-IDF vectors, runs DBSCAN and summarizes each cluster.
//
// Empty input produces a well-formed zero result: no clusters, no noise, no
// error. A non-empty input whose entries are all invalid, or whose titles
// yield no tokens at all, fails with an InvalidEntryError.
func ClusterEvents(ctx context.Context, events []watch.Event, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sorted, warnings, err := watch.Normalize(events)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return &Result{Assignments: []int{}, Clusters: []Cluster{}, Events: sorted, Warnings: warnings}, nil
	}

	vectorizer := NewVectorizer()
	vectors, err := vectorizer.FitTransform(watch.Titles(sorted))
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(cfg.Eps, cfg.MinSamples)
	if err != nil {
		return nil, err
	}
	assignments, err := engine.Cluster(ctx, vectors)
	if err != nil {
		return nil, err
	}

	result := summarize(sorted, assignments, cfg)
	result.Warnings = warnings

	logging.Debug().
		Int("events", len(sorted)).
		Int("clusters", len(result.Clusters)).
		Int("noise", result.NoiseCount).
		Msg("clustering complete")

	return result, nil
}

// summarize groups assignments into Cluster values with derived summaries.
func summarize(events []watch.Event, assignments []int, cfg Config) *Result {
	members := make(map[int][]int)
	noise := 0
	maxID := -1
	for i, label := range assignments {
		if label == Noise {
			noise++
			continue
		}
		members[label] = append(members[label], i)
		if label > maxID {
			maxID = label
		}
	}

	clusters := make([]Cluster, 0, len(members))
	for id := 0; id <= maxID; id++ {
		indices, ok := members[id]
		if !ok {
			continue
		}
		clusters = append(clusters, Cluster{
			ID:              id,
			Size:            len(indices),
			MemberIndices:   indices,
			DominantTheme:   DominantTheme(events, indices, cfg.ThemeTerms),
			Characteristics: characterize(events, indices, cfg.KeywordTerms),
		})
	}

	return &Result{
		Assignments: assignments,
		Clusters:    clusters,
		NoiseCount:  noise,
		Events:      events,
	}
}

// DominantTheme returns the top-k most frequent informative tokens among the
// member titles. Ties are broken lexically ascending so the theme is stable
// across runs.
func DominantTheme(events []watch.Event, indices []int, k int) []string {
	if k < 1 {
		k = 1
	}
	counts := make(map[string]int)
	for _, i := range indices {
		for _, tok := range Tokenize(events[i].Title) {
			counts[tok]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(a, b int) bool {
		if counts[tokens[a]] != counts[tokens[b]] {
			return counts[tokens[a]] > counts[tokens[b]]
		}
		return tokens[a] < tokens[b]
	})

	if len(tokens) > k {
		tokens = tokens[:k]
	}
	return tokens
}

func characterize(events []watch.Event, indices []int, keywordTerms int) Characteristics {
	ch := Characteristics{
		TopKeywords: DominantTheme(events, indices, keywordTerms),
	}

	var durationSum float64
	var durationCount int
	for _, i := range indices {
		ev := events[i]
		ch.HourHistogram[ev.Hour()]++
		if ev.DurationSeconds != nil {
			durationSum += *ev.DurationSeconds
			durationCount++
		}
	}
	if durationCount > 0 {
		ch.AvgDurationSeconds = durationSum / float64(durationCount)
	}
	return ch
}
