// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package simulate

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/viewlens/watch"
)

// titleStyle names a recognizable title shape learned from the base profile
// and reproduced in generated titles.
type titleStyle string

const (
	styleCreatorContent titleStyle = "creator_content"
	styleSeriesEpisode  titleStyle = "series_episode"
	styleParentheses    titleStyle = "parentheses"
	styleBrackets       titleStyle = "brackets"
	styleSimple         titleStyle = "simple"
)

var episodeRe = regexp.MustCompile(`(?i)EP\.?\s*\d+`)

// classifyTitle lists every style a title exhibits, falling back to the
// simple style when none match.
func classifyTitle(title string) []titleStyle {
	var styles []titleStyle
	if strings.Contains(title, " - ") {
		styles = append(styles, styleCreatorContent)
	}
	if episodeRe.MatchString(title) {
		styles = append(styles, styleSeriesEpisode)
	}
	if strings.Contains(title, "(") && strings.Contains(title, ")") {
		styles = append(styles, styleParentheses)
	}
	if strings.Contains(title, "[") && strings.Contains(title, "]") {
		styles = append(styles, styleBrackets)
	}
	if len(styles) == 0 {
		styles = append(styles, styleSimple)
	}
	return styles
}

// categorize buckets a title into a coarse content type by keyword.
func categorize(title string) string {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, "tutorial", "how to", "guide"):
		return "educational"
	case containsAny(lower, "music", "song", "audio"):
		return "music"
	case containsAny(lower, "game", "gaming", "playthrough"):
		return "gaming"
	case containsAny(lower, "vlog", "daily", "life"):
		return "vlog"
	default:
		return "other"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

const intervalBins = 50

// patterns is everything learned from a base profile: where in the day the
// viewer watches, what they watch, how fast, and how much per day.
type patterns struct {
	// hourWeights is the normalized histogram of view hours.
	hourWeights [24]float64

	// categories and categoryWeights form the sampled content distribution,
	// in sorted key order so sampling is reproducible.
	categories      []string
	categoryWeights []float64

	// intervalMinutes and intervalWeights form the distribution of gaps
	// between consecutive views under 24 hours (bin midpoints).
	intervalMinutes []float64
	intervalWeights []float64

	// dailyMean and dailyStd describe the daily view-count distribution.
	dailyMean float64
	dailyStd  float64

	// stylesByCategory maps content type to the title styles seen for it.
	stylesByCategory map[string][]titleStyle
}

// extractPatterns learns the viewing patterns of a sorted base profile.
func extractPatterns(events []watch.Event) *patterns {
	p := &patterns{stylesByCategory: make(map[string][]titleStyle)}

	hourCounts := [24]int{}
	categoryCounts := make(map[string]int)
	for _, ev := range events {
		hourCounts[ev.Hour()]++
		cat := categorize(ev.Title)
		categoryCounts[cat]++
		p.stylesByCategory[cat] = append(p.stylesByCategory[cat], classifyTitle(ev.Title)...)
	}
	total := float64(len(events))
	for h, n := range hourCounts {
		p.hourWeights[h] = float64(n) / total
	}

	cats := make([]string, 0, len(categoryCounts))
	for cat := range categoryCounts {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	p.categories = cats
	p.categoryWeights = make([]float64, len(cats))
	for i, cat := range cats {
		p.categoryWeights[i] = float64(categoryCounts[cat]) / total
	}

	p.intervalMinutes, p.intervalWeights = intervalDistribution(events)
	p.dailyMean, p.dailyStd = dailyCountStats(events)
	return p
}

// intervalDistribution histograms the gaps under 24h between consecutive
// views into fixed-width bins and returns bin midpoints with normalized
// weights. With no usable gaps it falls back to a flat 30-minute interval.
func intervalDistribution(events []watch.Event) ([]float64, []float64) {
	var gaps []float64
	for i := 1; i < len(events); i++ {
		gap := events[i].Timestamp.Sub(events[i-1].Timestamp).Minutes()
		if gap < 24*60 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return []float64{30}, []float64{1}
	}

	lo, hi := gaps[0], gaps[0]
	for _, g := range gaps {
		lo = math.Min(lo, g)
		hi = math.Max(hi, g)
	}
	width := (hi - lo) / intervalBins
	if width == 0 {
		return []float64{lo}, []float64{1}
	}

	counts := make([]float64, intervalBins)
	for _, g := range gaps {
		idx := int((g - lo) / width)
		if idx == intervalBins {
			idx--
		}
		counts[idx]++
	}
	mids := make([]float64, intervalBins)
	for i := range mids {
		mids[i] = lo + (float64(i)+0.5)*width
		counts[i] /= float64(len(gaps))
	}
	return mids, counts
}

// dailyCountStats returns the mean and population standard deviation of
// views per calendar day.
func dailyCountStats(events []watch.Event) (float64, float64) {
	perDay := make(map[string]int)
	for _, ev := range events {
		perDay[ev.Timestamp.Format(time.DateOnly)]++
	}
	if len(perDay) == 0 {
		return 0, 0
	}
	var sum float64
	for _, n := range perDay {
		sum += float64(n)
	}
	mean := sum / float64(len(perDay))
	var ss float64
	for _, n := range perDay {
		d := float64(n) - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(perDay)))
}
