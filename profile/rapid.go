// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

// RapidViewingDetector flags each adjacent pair of events whose timestamp
// delta is below the configured threshold. A human picking the next video
// needs time to do so; sub-threshold gaps in bulk suggest automation.
type RapidViewingDetector struct {
	thresholdSeconds float64
}

// NewRapidViewingDetector creates a rapid-viewing detector.
func NewRapidViewingDetector(thresholdSeconds float64) *RapidViewingDetector {
	return &RapidViewingDetector{thresholdSeconds: thresholdSeconds}
}

// Kind returns SignalRapidViewing.
func (d *RapidViewingDetector) Kind() SignalKind { return SignalRapidViewing }

// Detect returns one finding per adjacent pair with gap < threshold.
// Confidence grows linearly as the gap shrinks toward zero.
func (d *RapidViewingDetector) Detect(seq *Sequence) []Finding {
	var findings []Finding
	for i := 1; i < len(seq.Events); i++ {
		gap := seq.Gap(i)
		if gap >= d.thresholdSeconds {
			continue
		}
		findings = append(findings, Finding{
			Kind:        SignalRapidViewing,
			StartIndex:  i - 1,
			EndIndex:    i,
			StartTime:   seq.Events[i-1].Timestamp,
			EndTime:     seq.Events[i].Timestamp,
			EventCount:  2,
			SpanSeconds: gap,
			GapSeconds:  gap,
			Confidence:  clip(1-gap/d.thresholdSeconds, 0, 1),
		})
	}
	return findings
}
