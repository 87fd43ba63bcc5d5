// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package simulate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/viewlens/watch"
)

var simStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func baseProfile() []watch.Event {
	titles := []string{
		"Lofi Girl - beats to relax to",
		"How to solder guide for beginners",
		"Minecraft playthrough EP. 4",
		"Daily vlog from the lake house",
		"Synthwave Mix (Best of 2024)",
		"Morning news roundup [LIVE]",
	}
	events := make([]watch.Event, 0, len(titles)*5)
	for day := 0; day < 5; day++ {
		for i, title := range titles {
			events = append(events, watch.Event{
				Title:     title,
				URL:       fmt.Sprintf("https://example.com/base-%d-%d", day, i),
				Timestamp: simStart.AddDate(0, 0, -10+day).Add(time.Duration(18*60+i*20) * time.Minute),
			})
		}
	}
	return events
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DurationDays = 0
	_, err := NewSimulator(cfg)
	var paramErr *watch.InvalidParameterError
	if !errors.As(err, &paramErr) {
		t.Fatalf("expected InvalidParameterError, got %v", err)
	}
}

func TestSimulateFrom_Deterministic(t *testing.T) {
	sim, err := NewSimulator(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := sim.SimulateFrom(context.Background(), baseProfile(), simStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := sim.SimulateFrom(context.Background(), baseProfile(), simStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title ||
			first[i].URL != second[i].URL ||
			!first[i].Timestamp.Equal(second[i].Timestamp) ||
			first[i].Category != second[i].Category {
			t.Fatalf("event %d differs between identical runs:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

func TestSimulateFrom_SeedChangesOutput(t *testing.T) {
	cfgA := DefaultConfig()
	cfgB := DefaultConfig()
	cfgB.Seed = 99

	simA, _ := NewSimulator(cfgA)
	simB, _ := NewSimulator(cfgB)

	a, err := simA.SimulateFrom(context.Background(), baseProfile(), simStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := simB.SimulateFrom(context.Background(), baseProfile(), simStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) == len(b) {
		same := true
		for i := range a {
			if a[i].Title != b[i].Title || !a[i].Timestamp.Equal(b[i].Timestamp) {
				same = false
				break
			}
		}
		if same {
			t.Error("different seeds produced identical histories")
		}
	}
}

func TestSimulateFrom_TimelineAndValidity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DurationDays = 7

	sim, _ := NewSimulator(cfg)
	generated, err := sim.SimulateFrom(context.Background(), baseProfile(), simStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(generated) < cfg.DurationDays {
		t.Fatalf("generated %d events, want at least one per day over %d days", len(generated), cfg.DurationDays)
	}
	end := simStart.AddDate(0, 0, cfg.DurationDays)
	for i, ev := range generated {
		if !ev.Valid() {
			t.Errorf("event %d is not a valid watch event: %+v", i, ev)
		}
		if ev.Timestamp.Before(simStart) || !ev.Timestamp.Before(end) {
			t.Errorf("event %d timestamp %v outside [%v, %v)", i, ev.Timestamp, simStart, end)
		}
	}

	// Every generated category must come from the learned distribution.
	known := map[string]bool{"educational": true, "music": true, "gaming": true, "vlog": true, "other": true}
	for i, ev := range generated {
		if !known[ev.Category] {
			t.Errorf("event %d has unlearned category %q", i, ev.Category)
		}
	}
}

func TestSimulateFrom_GapsFollowBaseProfile(t *testing.T) {
	// Every gap in the base history is exactly 45 minutes, so the learned
	// inter-arrival distribution collapses to a single value and every
	// generated same-day gap must reproduce it exactly.
	base := make([]watch.Event, 0, 8)
	for i := 0; i < 8; i++ {
		base = append(base, watch.Event{
			Title:     fmt.Sprintf("Synth session %d", i),
			URL:       fmt.Sprintf("https://example.com/gap-%d", i),
			Timestamp: simStart.AddDate(0, 0, -3).Add(10*time.Hour + time.Duration(i*45)*time.Minute),
		})
	}

	cfg := DefaultConfig()
	cfg.DurationDays = 5

	sim, _ := NewSimulator(cfg)
	generated, err := sim.SimulateFrom(context.Background(), base, simStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Eight views on the single base day means eight per generated day.
	if want := 8 * cfg.DurationDays; len(generated) != want {
		t.Fatalf("generated %d events, want %d", len(generated), want)
	}
	for i := 1; i < len(generated); i++ {
		prev, cur := generated[i-1], generated[i]
		if prev.Timestamp.Day() != cur.Timestamp.Day() {
			continue
		}
		if gap := cur.Timestamp.Sub(prev.Timestamp); gap != 45*time.Minute {
			t.Errorf("gap %d is %v, want 45m0s", i, gap)
		}
	}
}

func TestSimulateFrom_EmptyBase(t *testing.T) {
	sim, _ := NewSimulator(DefaultConfig())
	_, err := sim.SimulateFrom(context.Background(), nil, simStart)
	var paramErr *watch.InvalidParameterError
	if !errors.As(err, &paramErr) {
		t.Fatalf("expected InvalidParameterError for an empty base profile, got %v", err)
	}
}

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  titleStyle
	}{
		{"Lofi Girl - beats to relax to", styleCreatorContent},
		{"Minecraft playthrough EP. 4", styleSeriesEpisode},
		{"Synthwave Mix (Best of 2024)", styleParentheses},
		{"Morning news roundup [LIVE]", styleBrackets},
		{"plain title", styleSimple},
	}
	for _, tt := range tests {
		styles := classifyTitle(tt.title)
		found := false
		for _, s := range styles {
			if s == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("classifyTitle(%q) = %v, want it to include %v", tt.title, styles, tt.want)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"How to solder guide", "educational"},
		{"Best music mix", "music"},
		{"Elden Ring playthrough", "gaming"},
		{"My daily routine", "vlog"},
		{"Something else entirely", "other"},
	}
	for _, tt := range tests {
		if got := categorize(tt.title); got != tt.want {
			t.Errorf("categorize(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSimulateFrom_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim, _ := NewSimulator(DefaultConfig())
	_, err := sim.SimulateFrom(ctx, baseProfile(), simStart)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
