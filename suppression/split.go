// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package suppression

import (
	"fmt"
	"time"

	"github.com/tomtom215/viewlens/watch"
)

// SplitPolicy decides where a time-sorted event sequence divides into the
// baseline period and the analysis period. Split returns the boundary
// index: events[:i] form the baseline, events[i:] the analysis period.
type SplitPolicy interface {
	Name() string
	Split(events []watch.Event) int
}

// SplitMidpoint splits at floor(n/2): the first half of the history is the
// baseline. This is the default policy and needs no timestamps beyond the
// sort order.
func SplitMidpoint() SplitPolicy { return midpointSplit{} }

type midpointSplit struct{}

func (midpointSplit) Name() string { return "midpoint" }

func (midpointSplit) Split(events []watch.Event) int {
	return len(events) / 2
}

// SplitBaselineWindow assigns every event within the first days×24h of the
// earliest timestamp to the baseline. Days must be positive; the calculator
// rejects a non-positive window at construction.
func SplitBaselineWindow(days int) SplitPolicy {
	return windowSplit{days: days}
}

type windowSplit struct {
	days int
}

func (w windowSplit) validate() error {
	if w.days < 1 {
		return watch.NewInvalidParameter("days", "must be >= 1, got %d", w.days)
	}
	return nil
}

func (w windowSplit) Name() string { return fmt.Sprintf("baseline_window_%dd", w.days) }

func (w windowSplit) Split(events []watch.Event) int {
	if len(events) == 0 {
		return 0
	}
	cutoff := events[0].Timestamp.Add(time.Duration(w.days) * 24 * time.Hour)
	for i, ev := range events {
		if !ev.Timestamp.Before(cutoff) {
			return i
		}
	}
	return len(events)
}
