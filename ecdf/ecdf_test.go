// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ecdf

import (
	"math"
	"reflect"
	"testing"
)

// checkCurve verifies the structural invariants every curve must hold:
// both components non-decreasing, cumulative values in (0, 1] after
// the anchor, and a total mass of 1.
func checkCurve(t *testing.T, c *Curve) {
	t.Helper()
	if c.Empty() {
		t.Fatal("curve is empty")
	}
	for i, pt := range c.Points {
		if i == 0 {
			continue
		}
		prev := c.Points[i-1]
		if pt.Value <= prev.Value {
			t.Errorf("point %d: value %v not above %v", i, pt.Value, prev.Value)
		}
		if pt.Cum < prev.Cum {
			t.Errorf("point %d: cumulative %v below %v", i, pt.Cum, prev.Cum)
		}
	}
	last := c.Points[len(c.Points)-1].Cum
	if math.Abs(last-1) > 1e-9 {
		t.Errorf("final cumulative value = %v, want 1", last)
	}
}

func TestBuild(t *testing.T) {
	c := Build(map[string]float64{"f1": 1.25, "f2": 2.5, "f3": 5.0, "f4": 2.5})
	checkCurve(t, c)

	want := []Point{{0, 0}, {1.25, 0.25}, {2.5, 0.75}, {5.0, 1.0}}
	if !reflect.DeepEqual(c.Points, want) {
		t.Errorf("Points = %v, want %v", c.Points, want)
	}
}

func TestBuildSingle(t *testing.T) {
	c := Build(map[string]float64{"f1": 1.25})
	want := []Point{{0, 0}, {1.25, 1.0}}
	if !reflect.DeepEqual(c.Points, want) {
		t.Errorf("Points = %v, want %v", c.Points, want)
	}
}

func TestBuildZeroOrigin(t *testing.T) {
	// A positive minimum gets an anchor at the origin.
	c := Build(map[string]float64{"a": 3, "b": 7})
	if got := c.Points[0]; got != (Point{0, 0}) {
		t.Errorf("first point = %v, want (0, 0)", got)
	}

	// A zero minimum already starts at zero; no anchor is added.
	c = Build(map[string]float64{"a": 0, "b": 7})
	if got := c.Points[0]; got != (Point{0, 0.5}) {
		t.Errorf("first point = %v, want (0, 0.5)", got)
	}
	checkCurve(t, c)
}

func TestBuildTies(t *testing.T) {
	// Equal values contribute one step, not N.
	c := Build(map[string]float64{"a": 2, "b": 2, "c": 2})
	checkCurve(t, c)
	if len(c.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(c.Points))
	}
	if c.Points[0] != (Point{0, 0}) || c.Points[1].Value != 2 {
		t.Errorf("Points = %v, want origin anchor and one step at 2", c.Points)
	}
}

func TestBuildIdempotent(t *testing.T) {
	agg := map[string]float64{"f1": 1.5, "f2": 9.75, "f3": 1.5, "f4": 420}
	first := Build(agg)
	second := Build(agg)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("curves differ across runs: %v vs %v", first, second)
	}
}

func TestBuildEmpty(t *testing.T) {
	c := Build(nil)
	if !c.Empty() {
		t.Errorf("Build(nil) = %v, want empty curve", c)
	}
}

func TestQuantiles(t *testing.T) {
	agg := map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
	p50, p99 := Quantiles(agg)
	if p50 != 3 {
		t.Errorf("p50 = %v, want 3", p50)
	}
	if p99 < 4 || p99 > 5 {
		t.Errorf("p99 = %v, want within [4, 5]", p99)
	}

	p50, p99 = Quantiles(nil)
	if !math.IsNaN(p50) || !math.IsNaN(p99) {
		t.Errorf("Quantiles(nil) = (%v, %v), want NaNs", p50, p99)
	}
}
