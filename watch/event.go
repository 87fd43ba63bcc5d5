// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package watch defines the watch-event data model shared by all analyzers,
// together with entry validation, defensive sorting, and the error taxonomy.
//
// Events are value objects: analyzers never mutate their input and every
// analysis artifact is a pure function of the normalized event sequence plus
// configuration.
package watch

import (
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultCategory is assigned to events with no category information.
const DefaultCategory = "unknown"

// timestampLayouts are the accepted timestamp formats, tried in order.
// Watch-history exports use RFC 3339 or a bare ISO-8601 local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Event is a single watch-history record. Title, URL and Timestamp are
// required; entries missing any of them are dropped during normalization.
type Event struct {
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	Timestamp       time.Time `json:"timestamp"`
	Channel         string    `json:"channel,omitempty"`
	Category        string    `json:"category,omitempty"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
}

// eventJSON mirrors Event with a string timestamp for flexible decoding.
type eventJSON struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Timestamp       string   `json:"timestamp"`
	Channel         string   `json:"channel,omitempty"`
	Category        string   `json:"category,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// UnmarshalJSON decodes an event, accepting any supported timestamp layout.
// An unparsable timestamp leaves Timestamp zero; Normalize drops the entry
// and records a warning instead of failing the whole decode.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Title = raw.Title
	e.URL = raw.URL
	e.Channel = raw.Channel
	e.Category = raw.Category
	e.DurationSeconds = raw.DurationSeconds
	e.Timestamp = time.Time{}

	if ts, err := ParseTimestamp(raw.Timestamp); err == nil {
		e.Timestamp = ts
	}
	return nil
}

// ParseTimestamp parses a timestamp string using the supported layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, NewInvalidEntry("empty timestamp")
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, NewInvalidEntry("unparsable timestamp %q: %v", s, lastErr)
}

// Valid reports whether the event carries all required fields.
func (e *Event) Valid() bool {
	return e.Title != "" && e.URL != "" && !e.Timestamp.IsZero()
}

// Hour returns the event's hour of day (0-23) in its own location.
func (e *Event) Hour() int {
	return e.Timestamp.Hour()
}

// Normalize validates, defaults and time-sorts an event sequence.
//
// Entries missing a title or URL, or carrying a zero timestamp, are excluded
// and reported as warnings. Surviving entries get DefaultCategory applied and
// are returned in non-decreasing timestamp order (stable sort, so equal
// timestamps keep their input order).
//
// A zero-length input is a legitimate state and returns an empty slice with
// no error. A non-empty input that loses every entry returns an
// InvalidEntryError, since a vacuous result would be meaningless.
func Normalize(events []Event) ([]Event, []Warning, error) {
	if len(events) == 0 {
		return []Event{}, nil, nil
	}

	normalized := make([]Event, 0, len(events))
	var warnings []Warning

	for i, ev := range events {
		switch {
		case ev.Title == "":
			warnings = append(warnings, Warning{Index: i, Field: "title", Reason: "missing required field"})
			continue
		case ev.URL == "":
			warnings = append(warnings, Warning{Index: i, Field: "url", Reason: "missing required field"})
			continue
		case ev.Timestamp.IsZero():
			warnings = append(warnings, Warning{Index: i, Field: "timestamp", Reason: "missing or unparsable timestamp"})
			continue
		}

		if ev.Category == "" {
			ev.Category = DefaultCategory
		}
		normalized = append(normalized, ev)
	}

	if len(normalized) == 0 {
		return nil, warnings, NewInvalidEntry("all %d entries are invalid", len(events))
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Timestamp.Before(normalized[j].Timestamp)
	})

	return normalized, warnings, nil
}

// Titles extracts the titles of an event sequence, preserving order.
func Titles(events []Event) []string {
	titles := make([]string, len(events))
	for i, ev := range events {
		titles[i] = ev.Title
	}
	return titles
}
