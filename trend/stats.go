// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package trend

import "math"

// regressionSlope is the least-squares slope of the series against its
// bucket index 0..n-1.
func regressionSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	meanX := (n - 1) / 2
	meanY := mean(values)
	var num, den float64
	for i, v := range values {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// indexCorrelation is the Pearson correlation of the series against its
// bucket index, 0 for flat series.
func indexCorrelation(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	meanX := (n - 1) / 2
	meanY := mean(values)
	var num, sumXX, sumYY float64
	for i, v := range values {
		dx := float64(i) - meanX
		dy := v - meanY
		num += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}
	if sumXX == 0 || sumYY == 0 {
		return 0
	}
	return num / math.Sqrt(sumXX*sumYY)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
