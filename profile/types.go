// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

import (
	"math"
	"time"

	"golang.org/x/text/language"

	"github.com/tomtom215/viewlens/cluster"
	"github.com/tomtom215/viewlens/watch"
)

// SignalKind identifies a pattern signal detector.
type SignalKind string

const (
	// SignalRapidViewing flags adjacent views closer than the rapid threshold.
	SignalRapidViewing SignalKind = "rapid_viewing"

	// SignalBinge flags long maximal runs of closely spaced views.
	SignalBinge SignalKind = "binge"

	// SignalAnomalousSession flags sessions deviating from the user's own
	// session-feature distribution.
	SignalAnomalousSession SignalKind = "anomalous_session"

	// SignalLanguageSwitch flags adjacent views in different languages.
	SignalLanguageSwitch SignalKind = "language_switch"

	// SignalTopicShift flags adjacent views that jump between distant topics.
	SignalTopicShift SignalKind = "topic_shift"
)

// Kinds lists all signal kinds in aggregation order.
func Kinds() []SignalKind {
	return []SignalKind{
		SignalRapidViewing,
		SignalBinge,
		SignalAnomalousSession,
		SignalLanguageSwitch,
		SignalTopicShift,
	}
}

// Finding is a single detected occurrence: an adjacent event pair for the
// pairwise detectors, or a run of events for the session detectors.
// StartIndex/EndIndex reference positions in the normalized sequence.
type Finding struct {
	Kind        SignalKind `json:"kind"`
	StartIndex  int        `json:"start_index"`
	EndIndex    int        `json:"end_index"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	EventCount  int        `json:"event_count"`
	SpanSeconds float64    `json:"span_seconds"`
	Confidence  float64    `json:"confidence"`

	// GapSeconds is set for rapid-viewing findings.
	GapSeconds float64 `json:"gap_seconds,omitempty"`

	// FromLanguage and ToLanguage are set for language-switch findings.
	FromLanguage string `json:"from_language,omitempty"`
	ToLanguage   string `json:"to_language,omitempty"`

	// Distance is the title-vector cosine distance for topic-shift findings.
	Distance float64 `json:"distance,omitempty"`
}

// Sequence is the immutable detector input: the normalized, time-sorted
// events plus derived per-event signals. Detectors only read it.
type Sequence struct {
	Events []watch.Event

	// Vectors holds one TF-IDF title vector per event. A zero-token corpus
	// is represented by zero vectors, never by a missing slice entry.
	Vectors []cluster.Vector

	// Assignments is the cluster id (or cluster.Noise) per event when the
	// caller ran clustering; nil when topic shifts fall back to categories.
	Assignments []int

	// Languages is the detected language tag per event title.
	Languages []language.Tag
}

// Gap returns the timestamp delta in seconds between events i-1 and i.
func (s *Sequence) Gap(i int) float64 {
	return s.Events[i].Timestamp.Sub(s.Events[i-1].Timestamp).Seconds()
}

// Detector is the uniform contract all five pattern detectors implement.
type Detector interface {
	// Kind returns the signal this detector produces.
	Kind() SignalKind

	// Detect scans the sequence and returns zero or more findings.
	// Sequences shorter than 2 events always yield no findings.
	Detect(seq *Sequence) []Finding
}

// Config holds the pattern-detection parameters.
type Config struct {
	// RapidThresholdSeconds is the adjacent-gap cutoff for rapid viewing.
	RapidThresholdSeconds float64 `koanf:"rapid_threshold_seconds" json:"rapid_threshold_seconds" validate:"gt=0"`

	// SessionGapSeconds is the maximal intra-session gap between views.
	SessionGapSeconds float64 `koanf:"session_gap_seconds" json:"session_gap_seconds" validate:"gt=0"`

	// MinSessionLength is the smallest run flagged as a binge session.
	MinSessionLength int `koanf:"min_session_length" json:"min_session_length" validate:"gte=1"`

	// DeviationK is the standard-deviation multiple beyond which a session
	// counts as anomalous against the user's own distribution.
	DeviationK float64 `koanf:"deviation_k" json:"deviation_k" validate:"gt=0"`

	// TopicShiftThreshold is the cosine-distance cutoff for topic shifts.
	TopicShiftThreshold float64 `koanf:"topic_shift_threshold" json:"topic_shift_threshold" validate:"gte=0,lte=1"`

	// MinConfidence drops findings below this confidence before aggregation.
	MinConfidence float64 `koanf:"min_confidence" json:"min_confidence" validate:"gte=0,lte=1"`

	// Weights maps each signal kind to its share of the risk score.
	// The weights must sum to 1.
	Weights map[SignalKind]float64 `koanf:"weights" json:"weights"`
}

// DefaultConfig returns the detection defaults. The rapid threshold and
// session gap mirror the 5- and 30-minute values the analysis was tuned with.
func DefaultConfig() Config {
	return Config{
		RapidThresholdSeconds: 300,
		SessionGapSeconds:     1800,
		MinSessionLength:      10,
		DeviationK:            2,
		TopicShiftThreshold:   0.7,
		MinConfidence:         0,
		Weights: map[SignalKind]float64{
			SignalRapidViewing:     0.25,
			SignalBinge:            0.20,
			SignalAnomalousSession: 0.20,
			SignalLanguageSwitch:   0.15,
			SignalTopicShift:       0.20,
		},
	}
}

// weightEpsilon absorbs float error when checking that weights sum to 1.
const weightEpsilon = 1e-9

// Validate fails fast with an InvalidParameterError on any malformed
// parameter, before processing starts.
func (c Config) Validate() error {
	if c.RapidThresholdSeconds <= 0 {
		return watch.NewInvalidParameter("rapid_threshold", "must be > 0, got %v", c.RapidThresholdSeconds)
	}
	if c.SessionGapSeconds <= 0 {
		return watch.NewInvalidParameter("session_gap_threshold", "must be > 0, got %v", c.SessionGapSeconds)
	}
	if c.MinSessionLength < 1 {
		return watch.NewInvalidParameter("min_session_length", "must be >= 1, got %d", c.MinSessionLength)
	}
	if c.DeviationK <= 0 {
		return watch.NewInvalidParameter("deviation_k", "must be > 0, got %v", c.DeviationK)
	}
	if c.TopicShiftThreshold < 0 || c.TopicShiftThreshold > 1 {
		return watch.NewInvalidParameter("topic_shift_threshold", "must be in [0,1], got %v", c.TopicShiftThreshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return watch.NewInvalidParameter("min_confidence", "must be in [0,1], got %v", c.MinConfidence)
	}

	if len(c.Weights) == 0 {
		return watch.NewInvalidParameter("weights", "no signal weights configured")
	}
	var sum float64
	for kind, w := range c.Weights {
		if w < 0 {
			return watch.NewInvalidParameter("weights", "weight for %q is negative: %v", kind, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightEpsilon {
		return watch.NewInvalidParameter("weights", "must sum to 1, got %v", sum)
	}
	return nil
}

// RiskLevel is the reporting band for a risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BandFor maps a risk score to its interpretation band:
// low [0, 0.2), medium [0.2, 0.5), high [0.5, 1.0].
func BandFor(score float64) RiskLevel {
	switch {
	case score < 0.2:
		return RiskLow
	case score < 0.5:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Signals groups the findings of all five detectors.
type Signals struct {
	RapidViewing      []Finding `json:"rapid_viewing"`
	BingePatterns     []Finding `json:"binge_patterns"`
	AnomalousSessions []Finding `json:"anomalous_sessions"`
	LanguageSwitches  []Finding `json:"language_switches"`
	TopicShifts       []Finding `json:"topic_shifts"`
}

// byKind returns the slice for the given signal kind.
func (s *Signals) byKind(kind SignalKind) *[]Finding {
	switch kind {
	case SignalRapidViewing:
		return &s.RapidViewing
	case SignalBinge:
		return &s.BingePatterns
	case SignalAnomalousSession:
		return &s.AnomalousSessions
	case SignalLanguageSwitch:
		return &s.LanguageSwitches
	case SignalTopicShift:
		return &s.TopicShifts
	default:
		return nil
	}
}

// Count returns the finding count for the given kind.
func (s *Signals) Count(kind SignalKind) int {
	if findings := s.byKind(kind); findings != nil {
		return len(*findings)
	}
	return 0
}

// Report is the aggregated pattern-analysis result.
type Report struct {
	// RiskScore is the normalized [0,1] aggregate of signal counts.
	RiskScore float64 `json:"risk_score"`

	// RiskLevel is the interpretation band for RiskScore.
	RiskLevel RiskLevel `json:"risk_level"`

	// Signals holds the per-detector findings.
	Signals Signals `json:"signals"`

	// TotalEvents is the number of events that survived normalization.
	TotalEvents int `json:"total_events"`

	// Warnings lists entries dropped during normalization.
	Warnings []watch.Warning `json:"warnings,omitempty"`
}
