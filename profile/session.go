// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

import "math"

// session is a maximal run of consecutive events whose adjacent gaps are all
// below the session gap threshold. Start and End are inclusive indices into
// the normalized sequence.
type session struct {
	Start int
	End   int
}

// Len returns the number of events in the session.
func (s session) Len() int {
	return s.End - s.Start + 1
}

// splitSessions partitions the sequence into sessions using the given gap
// threshold in seconds. A single event forms a session of length 1.
func splitSessions(seq *Sequence, gapSeconds float64) []session {
	if len(seq.Events) == 0 {
		return nil
	}

	var sessions []session
	start := 0
	for i := 1; i < len(seq.Events); i++ {
		if seq.Gap(i) >= gapSeconds {
			sessions = append(sessions, session{Start: start, End: i - 1})
			start = i
		}
	}
	sessions = append(sessions, session{Start: start, End: len(seq.Events) - 1})
	return sessions
}

// meanStd returns the arithmetic mean and population standard deviation.
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// clip clamps v into [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
