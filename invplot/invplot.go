// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package invplot renders CDF comparison figures.
//
// Each figure has two side-by-side panels, per-function slowdown on
// the left and per-function scheduling latency on the right, with one
// curve per system under comparison. Both panels use a logarithmic X
// axis, so the origin anchor of each curve is clipped at the left
// axis limit rather than drawn.
package invplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/eth-easl/invstat/ecdf"
)

// ErrNoCurves reports a figure with an empty panel; such figures are
// skipped rather than rendered without curves.
var ErrNoCurves = errors.New("no curves to plot")

// A Figure is one comparison chart: a label -> curve mapping for each
// of the two metrics.
type Figure struct {
	Name         string
	Slowdown     map[string]*ecdf.Curve
	SchedLatency map[string]*ecdf.Curve
}

// colors assigns each known system label its fixed color, so a system
// keeps its identity across figures. Unknown labels render gray.
var colors = map[string]color.Color{
	"Kn/K8s":   color.NRGBA{0x2c, 0xa0, 0x2c, 0xff},
	"Kn/Kd":    color.NRGBA{0x1f, 0x77, 0xb4, 0xff},
	"Dirigent": color.NRGBA{0xff, 0x7f, 0x0e, 0xff},
	"Dr/K8s+":  color.NRGBA{0x2c, 0xa0, 0x2c, 0xff},
	"Dr/Kd+":   color.NRGBA{0x1f, 0x77, 0xb4, 0xff},
}

var gray = color.NRGBA{0x7f, 0x7f, 0x7f, 0xff}

// Render draws fig as a PNG under dir and returns the file path.
// It returns ErrNoCurves if either panel has no curves.
func Render(fig *Figure, dir string) (string, error) {
	if len(fig.Slowdown) == 0 || len(fig.SchedLatency) == 0 {
		return "", ErrNoCurves
	}

	left, err := panel(fig.Slowdown, "Avg. Per-Function Slowdown", 1, 1e4)
	if err != nil {
		return "", err
	}
	right, err := panel(fig.SchedLatency, "Avg. Per-Function Scheduling Latency [ms]", 1, 1e6)
	if err != nil {
		return "", err
	}

	img := vgimg.NewWith(
		vgimg.UseWH(10*vg.Inch, 4.5*vg.Inch),
		vgimg.UseBackgroundColor(color.White),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 5, PadY: vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{left, right}}
	canvases := plot.Align(plots, tiles, dc)
	left.Draw(canvases[0][0])
	right.Draw(canvases[0][1])

	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fig.Name+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return "", err
	}
	return path, nil
}

// panel builds one CDF subplot with a log-scale X axis over
// [xmin, xmax].
func panel(curves map[string]*ecdf.Curve, xlabel string, xmin, xmax float64) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "CDF"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = decadeTicks{}
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	// Sorted labels keep legend order and color assignment stable.
	labels := make([]string, 0, len(curves))
	for label := range curves {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		line, err := plotter.NewLine(curveXYs(curves[label], xmin))
		if err != nil {
			return nil, err
		}
		if c, ok := colors[label]; ok {
			line.Color = c
		} else {
			line.Color = gray
		}
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(label, line)
	}
	p.Legend.Top = false
	p.Legend.Left = false
	return p, nil
}

// curveXYs converts a curve for a log-scale axis: points left of xmin
// are clamped to the axis edge, preserving the cumulative fraction the
// curve enters the visible range with.
func curveXYs(c *ecdf.Curve, xmin float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(c.Points))
	for _, pt := range c.Points {
		x := pt.Value
		if x < xmin {
			x = xmin
		}
		xys = append(xys, plotter.XY{X: x, Y: pt.Cum})
	}
	return xys
}

// decadeTicks marks powers of ten.
type decadeTicks struct{}

func (decadeTicks) Ticks(min, max float64) []plot.Tick {
	if min <= 0 {
		min = 1
	}
	var ticks []plot.Tick
	lo := int(math.Floor(math.Log10(min)))
	hi := int(math.Ceil(math.Log10(max)))
	for e := lo; e <= hi; e++ {
		v := math.Pow(10, float64(e))
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: tickLabel(v)})
	}
	return ticks
}

func tickLabel(v float64) string {
	if v >= 1e4 {
		return fmt.Sprintf("1e%d", int(math.Round(math.Log10(v))))
	}
	return fmt.Sprintf("%.0f", v)
}
