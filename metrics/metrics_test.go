// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(AnalysisRuns.WithLabelValues("clustering", "success"))
	eventsBefore := testutil.ToFloat64(EventsProcessed.WithLabelValues("clustering"))

	RecordRun("clustering", 10*time.Millisecond, 42, nil)

	if got := testutil.ToFloat64(AnalysisRuns.WithLabelValues("clustering", "success")); got != before+1 {
		t.Errorf("success runs = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(EventsProcessed.WithLabelValues("clustering")); got != eventsBefore+42 {
		t.Errorf("events processed = %v, want %v", got, eventsBefore+42)
	}
}

func TestRecordRun_Error(t *testing.T) {
	before := testutil.ToFloat64(AnalysisRuns.WithLabelValues("patterns", "error"))
	eventsBefore := testutil.ToFloat64(EventsProcessed.WithLabelValues("patterns"))

	RecordRun("patterns", time.Millisecond, 7, errors.New("boom"))

	if got := testutil.ToFloat64(AnalysisRuns.WithLabelValues("patterns", "error")); got != before+1 {
		t.Errorf("error runs = %v, want %v", got, before+1)
	}
	// Failed runs must not count their events as processed.
	if got := testutil.ToFloat64(EventsProcessed.WithLabelValues("patterns")); got != eventsBefore {
		t.Errorf("events processed = %v, want %v", got, eventsBefore)
	}
}

func TestRecordDropped(t *testing.T) {
	before := testutil.ToFloat64(EntriesDropped)
	RecordDropped(3)
	RecordDropped(0)
	RecordDropped(-1)
	if got := testutil.ToFloat64(EntriesDropped); got != before+3 {
		t.Errorf("entries dropped = %v, want %v", got, before+3)
	}
}
