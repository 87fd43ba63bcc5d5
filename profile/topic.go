// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

import "github.com/tomtom215/viewlens/cluster"

// TopicShiftDetector flags adjacent pairs of events that jump between
// distant topics: their cluster assignment (when the caller supplied one) or
// category differs, and the cosine distance between their title vectors
// exceeds the configured threshold.
type TopicShiftDetector struct {
	threshold float64
}

// NewTopicShiftDetector creates a topic-shift detector.
func NewTopicShiftDetector(threshold float64) *TopicShiftDetector {
	return &TopicShiftDetector{threshold: threshold}
}

// Kind returns SignalTopicShift.
func (d *TopicShiftDetector) Kind() SignalKind { return SignalTopicShift }

// Detect returns one finding per adjacent pair that crosses a topic
// boundary. Without cluster assignments the category comparison alone
// decides the boundary; the distance cut applies either way.
func (d *TopicShiftDetector) Detect(seq *Sequence) []Finding {
	var findings []Finding
	for i := 1; i < len(seq.Events); i++ {
		if !d.boundary(seq, i) {
			continue
		}
		dist := cluster.CosineDistance(seq.Vectors[i-1], seq.Vectors[i])
		if dist <= d.threshold {
			continue
		}
		findings = append(findings, Finding{
			Kind:        SignalTopicShift,
			StartIndex:  i - 1,
			EndIndex:    i,
			StartTime:   seq.Events[i-1].Timestamp,
			EndTime:     seq.Events[i].Timestamp,
			EventCount:  2,
			SpanSeconds: seq.Gap(i),
			Distance:    dist,
			Confidence:  clip(dist, 0, 1),
		})
	}
	return findings
}

// boundary reports whether events i-1 and i belong to different topics.
func (d *TopicShiftDetector) boundary(seq *Sequence, i int) bool {
	if seq.Assignments != nil && seq.Assignments[i-1] != seq.Assignments[i] {
		return true
	}
	return seq.Events[i-1].Category != seq.Events[i].Category
}
