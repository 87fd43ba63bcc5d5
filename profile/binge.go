// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

// BingeDetector flags viewing sessions (maximal runs with adjacent gaps
// below the session gap threshold) whose length reaches the configured
// minimum, reporting member count and wall-clock span.
type BingeDetector struct {
	sessionGapSeconds float64
	minSessionLength  int
}

// NewBingeDetector creates a binge-session detector.
func NewBingeDetector(sessionGapSeconds float64, minSessionLength int) *BingeDetector {
	return &BingeDetector{
		sessionGapSeconds: sessionGapSeconds,
		minSessionLength:  minSessionLength,
	}
}

// Kind returns SignalBinge.
func (d *BingeDetector) Kind() SignalKind { return SignalBinge }

// Detect returns one finding per session of at least minSessionLength events.
// Confidence reaches 0.5 at the minimum length and 1.0 at twice the minimum.
func (d *BingeDetector) Detect(seq *Sequence) []Finding {
	if len(seq.Events) < 2 {
		return nil
	}

	var findings []Finding
	for _, s := range splitSessions(seq, d.sessionGapSeconds) {
		if s.Len() < d.minSessionLength {
			continue
		}
		start := seq.Events[s.Start].Timestamp
		end := seq.Events[s.End].Timestamp
		findings = append(findings, Finding{
			Kind:        SignalBinge,
			StartIndex:  s.Start,
			EndIndex:    s.End,
			StartTime:   start,
			EndTime:     end,
			EventCount:  s.Len(),
			SpanSeconds: end.Sub(start).Seconds(),
			Confidence:  clip(float64(s.Len())/(2*float64(d.minSessionLength)), 0, 1),
		})
	}
	return findings
}
