// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ecdf builds empirical cumulative distribution functions
// over per-entity metric values.
//
// Every entity contributes an equal density of 1/n, ties at the same
// value collapse into a single step, and every curve is anchored at
// the origin so it renders from zero regardless of the data minimum.
package ecdf

import (
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// A Point is one step of a cumulative distribution: Cum is the
// fraction of entities whose value is <= Value.
type Point struct {
	Value float64
	Cum   float64
}

// A Curve is an empirical CDF: an ordered sequence of points,
// non-decreasing in both components, with Cum reaching 1 at the last
// point. The zero Curve is empty and reports Empty() == true.
type Curve struct {
	Points []Point
}

// Empty reports whether the curve carries no distribution.
func (c *Curve) Empty() bool {
	return len(c.Points) == 0
}

// Build constructs the CDF of the values in agg, one observation per
// entity. Equal values are merged into a single step. If the smallest
// value is strictly positive, a (0, 0) point is prepended so the curve
// starts at the origin. Build is deterministic: equal inputs produce
// identical curves.
func Build(agg map[string]float64) *Curve {
	n := len(agg)
	if n == 0 {
		return &Curve{}
	}

	density := 1.0 / float64(n)
	mass := make(map[float64]float64)
	for _, v := range agg {
		mass[v] += density
	}

	values := make([]float64, 0, len(mass))
	for v := range mass {
		values = append(values, v)
	}
	sort.Float64s(values)

	points := make([]Point, 0, len(values)+1)
	if values[0] > 0 {
		points = append(points, Point{0, 0})
	}
	cum := 0.0
	for _, v := range values {
		cum += mass[v]
		points = append(points, Point{v, cum})
	}
	return &Curve{points}
}

// Quantiles returns the 50th and 99th percentile of the per-entity
// values in agg, before any grouping by value. It returns NaNs for an
// empty input.
func Quantiles(agg map[string]float64) (p50, p99 float64) {
	xs := make([]float64, 0, len(agg))
	for _, v := range agg {
		xs = append(xs, v)
	}
	s := stats.Sample{Xs: xs}
	s.Sort()
	return s.Quantile(0.5), s.Quantile(0.99)
}
