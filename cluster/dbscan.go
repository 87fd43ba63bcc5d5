// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package cluster

import (
	"context"

	"github.com/tomtom215/viewlens/watch"
)

// Label values for points that are not members of any cluster.
const (
	// Noise marks a point density-unreachable from any core point.
	Noise = -1

	// unclassified marks a point not yet visited during expansion.
	unclassified = -2
)

// Engine runs density-based (DBSCAN) clustering over cosine distance.
//
// A point is a core point if at least minSamples points (itself included) lie
// within eps of it. Clusters grow by density-reachability through core
// points; border points keep the first cluster that reaches them. Points are
// always processed in ascending index order, so the frontier tie-break is
// deterministic and repeated runs produce identical assignments.
type Engine struct {
	eps        float64
	minSamples int
}

// NewEngine validates the clustering parameters and creates an engine.
// eps must be > 0 and minSamples >= 1; violations return an
// InvalidParameterError before any processing.
func NewEngine(eps float64, minSamples int) (*Engine, error) {
	if eps <= 0 {
		return nil, watch.NewInvalidParameter("eps", "must be > 0, got %v", eps)
	}
	if minSamples < 1 {
		return nil, watch.NewInvalidParameter("min_samples", "must be >= 1, got %d", minSamples)
	}
	return &Engine{eps: eps, minSamples: minSamples}, nil
}

// Cluster assigns every vector to a cluster id (0..k-1) or Noise (-1).
// Empty input yields an empty assignment, not an error. The context is
// checked between points so long corpora can be canceled.
func (e *Engine) Cluster(ctx context.Context, vectors []Vector) ([]int, error) {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unclassified
	}

	nextCluster := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if labels[i] != unclassified {
			continue
		}

		neighbors := e.regionQuery(vectors, i)
		if len(neighbors) < e.minSamples {
			labels[i] = Noise
			continue
		}

		e.expand(ctx, vectors, labels, i, neighbors, nextCluster)
		nextCluster++
	}

	return labels, nil
}

// expand grows cluster c from core point i using an explicit FIFO worklist.
// Recursion would overflow the stack when a single dense cluster spans the
// whole corpus.
func (e *Engine) expand(ctx context.Context, vectors []Vector, labels []int, i int, seeds []int, c int) {
	labels[i] = c

	queue := append([]int(nil), seeds...)
	for head := 0; head < len(queue); head++ {
		if ctx.Err() != nil {
			return
		}
		p := queue[head]

		if labels[p] == Noise {
			// Border point: density-reachable but not core.
			labels[p] = c
			continue
		}
		if labels[p] != unclassified {
			continue
		}
		labels[p] = c

		neighbors := e.regionQuery(vectors, p)
		if len(neighbors) >= e.minSamples {
			queue = append(queue, neighbors...)
		}
	}
}

// regionQuery returns the indices within eps of point i, in ascending order,
// including i itself. The linear scan makes the full run O(n²); corpora large
// enough to need a spatial index have not shown up in watch histories.
func (e *Engine) regionQuery(vectors []Vector, i int) []int {
	var neighbors []int
	for j := range vectors {
		if CosineDistance(vectors[i], vectors[j]) <= e.eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
