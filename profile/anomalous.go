// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

import "math"

// AnomalousSessionDetector flags sessions whose aggregate features deviate
// from the user's own session-feature distribution. The baseline is
// self-referential: the distribution is computed across all sessions in the
// same sequence, not against any population norm.
//
// Per-session features: event count, category diversity (distinct
// categories), and mean hour of day.
type AnomalousSessionDetector struct {
	sessionGapSeconds float64
	deviationK        float64
}

// NewAnomalousSessionDetector creates an anomalous-session detector.
func NewAnomalousSessionDetector(sessionGapSeconds, deviationK float64) *AnomalousSessionDetector {
	return &AnomalousSessionDetector{
		sessionGapSeconds: sessionGapSeconds,
		deviationK:        deviationK,
	}
}

// Kind returns SignalAnomalousSession.
func (d *AnomalousSessionDetector) Kind() SignalKind { return SignalAnomalousSession }

// sessionFeatures holds the feature vector of one session.
type sessionFeatures struct {
	length    float64
	diversity float64
	meanHour  float64
}

// Detect flags sessions where any feature lies more than deviationK standard
// deviations from that feature's mean across all sessions. With fewer than
// two sessions there is no distribution to deviate from, so nothing is
// flagged. Confidence scales with the largest z-score, reaching 0.5 at the
// deviation threshold.
func (d *AnomalousSessionDetector) Detect(seq *Sequence) []Finding {
	if len(seq.Events) < 2 {
		return nil
	}

	sessions := splitSessions(seq, d.sessionGapSeconds)
	if len(sessions) < 2 {
		return nil
	}

	features := make([]sessionFeatures, len(sessions))
	lengths := make([]float64, len(sessions))
	diversities := make([]float64, len(sessions))
	hours := make([]float64, len(sessions))
	for i, s := range sessions {
		f := d.featuresOf(seq, s)
		features[i] = f
		lengths[i] = f.length
		diversities[i] = f.diversity
		hours[i] = f.meanHour
	}

	meanLen, stdLen := meanStd(lengths)
	meanDiv, stdDiv := meanStd(diversities)
	meanHour, stdHour := meanStd(hours)

	var findings []Finding
	for i, s := range sessions {
		z := math.Max(zScore(features[i].length, meanLen, stdLen),
			math.Max(zScore(features[i].diversity, meanDiv, stdDiv),
				zScore(features[i].meanHour, meanHour, stdHour)))
		if z <= d.deviationK {
			continue
		}

		start := seq.Events[s.Start].Timestamp
		end := seq.Events[s.End].Timestamp
		findings = append(findings, Finding{
			Kind:        SignalAnomalousSession,
			StartIndex:  s.Start,
			EndIndex:    s.End,
			StartTime:   start,
			EndTime:     end,
			EventCount:  s.Len(),
			SpanSeconds: end.Sub(start).Seconds(),
			Confidence:  clip(z/(2*d.deviationK), 0, 1),
		})
	}
	return findings
}

func (d *AnomalousSessionDetector) featuresOf(seq *Sequence, s session) sessionFeatures {
	categories := make(map[string]struct{})
	var hourSum float64
	for i := s.Start; i <= s.End; i++ {
		categories[seq.Events[i].Category] = struct{}{}
		hourSum += float64(seq.Events[i].Hour())
	}
	return sessionFeatures{
		length:    float64(s.Len()),
		diversity: float64(len(categories)),
		meanHour:  hourSum / float64(s.Len()),
	}
}

// zScore returns |v-mean|/std, or 0 when the distribution has no spread.
func zScore(v, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return math.Abs(v-mean) / std
}
