// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// scriptTags maps unicode script ranges to the language most commonly
// written in them. Titles are short, so script distribution is the only
// reliable signal outside Latin text.
var scriptTags = []struct {
	table *unicode.RangeTable
	tag   language.Tag
}{
	{unicode.Hiragana, language.Japanese},
	{unicode.Katakana, language.Japanese},
	{unicode.Hangul, language.Korean},
	{unicode.Han, language.Chinese},
	{unicode.Cyrillic, language.Russian},
	{unicode.Arabic, language.Arabic},
	{unicode.Devanagari, language.Hindi},
	{unicode.Hebrew, language.Hebrew},
	{unicode.Greek, language.Greek},
	{unicode.Thai, language.Thai},
}

// Common-word heuristics distinguish English from Spanish within Latin
// script; other Latin-script languages resolve to English as the dominant
// language of the corpus this analysis was built against.
var (
	englishMarkers = []string{"the", "and", "or", "in", "of", "to", "how", "with"}
	spanishMarkers = []string{"el", "la", "los", "las", "de", "que", "como", "para"}
)

// DetectLanguage infers the language of a title from its script and
// character distribution. It returns language.Und when the title carries no
// letters at all; pairs involving Und are never counted as switches.
func DetectLanguage(title string) language.Tag {
	counts := make(map[int]int, len(scriptTags))
	latin := 0
	letters := 0
	kana := 0

	for _, r := range title {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Latin, r) {
			latin++
			continue
		}
		if unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			kana++
		}
		for i, st := range scriptTags {
			if unicode.Is(st.table, r) {
				counts[i]++
				break
			}
		}
	}

	if letters == 0 {
		return language.Und
	}

	// Any kana at all reads as Japanese: kanji-heavy Japanese titles would
	// otherwise resolve to Chinese on raw Han counts.
	if kana > 0 {
		return language.Japanese
	}

	// Lowest index wins ties so the result never depends on map order.
	best, bestCount := -1, 0
	for i := range scriptTags {
		if counts[i] > bestCount {
			best, bestCount = i, counts[i]
		}
	}
	if best >= 0 && (bestCount > latin || latin == 0) {
		return scriptTags[best].tag
	}

	return detectLatin(title)
}

func detectLatin(title string) language.Tag {
	words := strings.Fields(strings.ToLower(title))
	en, es := 0, 0
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;\"'()[]")
		if containsWord(englishMarkers, w) {
			en++
		}
		if containsWord(spanishMarkers, w) {
			es++
		}
	}
	switch {
	case es > en:
		return language.Spanish
	default:
		return language.English
	}
}

func containsWord(set []string, w string) bool {
	for _, s := range set {
		if s == w {
			return true
		}
	}
	return false
}

// LanguageSwitchDetector flags adjacent pairs of events whose detected title
// languages differ. Runs of consecutive switches raise confidence: a single
// bilingual viewer flips occasionally, injected content flips constantly.
type LanguageSwitchDetector struct{}

// NewLanguageSwitchDetector creates a language-switch detector.
func NewLanguageSwitchDetector() *LanguageSwitchDetector {
	return &LanguageSwitchDetector{}
}

// Kind returns SignalLanguageSwitch.
func (d *LanguageSwitchDetector) Kind() SignalKind { return SignalLanguageSwitch }

// Detect returns one finding per adjacent pair with differing, determined
// languages. Pairs where either side is language.Und are skipped.
func (d *LanguageSwitchDetector) Detect(seq *Sequence) []Finding {
	var findings []Finding
	run := 0
	for i := 1; i < len(seq.Events); i++ {
		prev, curr := seq.Languages[i-1], seq.Languages[i]
		if prev == language.Und || curr == language.Und || prev == curr {
			run = 0
			continue
		}
		run++
		findings = append(findings, Finding{
			Kind:         SignalLanguageSwitch,
			StartIndex:   i - 1,
			EndIndex:     i,
			StartTime:    seq.Events[i-1].Timestamp,
			EndTime:      seq.Events[i].Timestamp,
			EventCount:   2,
			SpanSeconds:  seq.Gap(i),
			FromLanguage: prev.String(),
			ToLanguage:   curr.String(),
			Confidence:   clip(0.6+0.1*float64(run-1), 0, 1),
		})
	}
	return findings
}
