// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Invstat derives per-function slowdown and scheduling-latency CDFs
// from trace experiment results and renders comparison figures.
//
// Usage:
//
//	invstat [-results dir] [-o dir] [-config file] [-v] run-id
//
// The run identifier selects the per-run subdirectories of the
// results tree and the output directory for figures. Each configured
// source is read once per metric, reduced to a per-entity mean, and
// drawn as one CDF curve. A missing or empty source degrades the
// figure (fewer curves); a figure left without curves is skipped. No
// input problem is fatal to the run.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/eth-easl/invstat/ecdf"
	"github.com/eth-easl/invstat/invfmt"
	"github.com/eth-easl/invstat/invplot"
	"github.com/eth-easl/invstat/invstat"
)

var (
	flagResults = flag.String("results", "results", "results `dir` containing per-system subdirectories")
	flagOut     = flag.String("o", "", "output `dir` for figures (default results/figures/<run-id>)")
	flagConfig  = flag.String("config", "", "figure configuration `file` (YAML); default is the built-in trace comparison set")
	flagVerbose = flag.Bool("v", false, "enable debug logging")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: invstat [options] run-id\n")
	fmt.Fprintf(os.Stderr, "options:\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}
	if *flagVerbose {
		log.SetLevel(log.DebugLevel)
	}
	runID := flag.Arg(0)

	cfg := DefaultConfig()
	if *flagConfig != "" {
		var err error
		cfg, err = LoadConfig(*flagConfig)
		if err != nil {
			log.Fatal(err)
		}
	}

	outDir := *flagOut
	if outDir == "" {
		outDir = filepath.Join(*flagResults, "figures", runID)
	}

	rendered := 0
	for i := range cfg.Figures {
		if render(&cfg.Figures[i], runID, outDir) {
			rendered++
		}
	}
	if rendered == 0 {
		log.Warn("no figures produced")
	}
}

// render processes one figure's sources and draws the figure,
// reporting whether a file was written.
func render(fig *FigureConfig, runID, outDir string) bool {
	out := &invplot.Figure{
		Name:         fig.Name,
		Slowdown:     make(map[string]*ecdf.Curve),
		SchedLatency: make(map[string]*ecdf.Curve),
	}

	for i := range fig.Sources {
		src := &fig.Sources[i]
		path := filepath.Join(*flagResults, src.ResolvePath(runID))
		format, err := src.ParseFormat()
		if err != nil {
			log.WithField("source", src.Label).Error(err)
			continue
		}

		if curve := sourceCurve(src, path, format, invstat.Slowdown); curve != nil {
			out.Slowdown[src.Label] = curve
		}
		if curve := sourceCurve(src, path, format, invstat.SchedulingLatency); curve != nil {
			out.SchedLatency[src.Label] = curve
		}
	}

	path, err := invplot.Render(out, outDir)
	if err == invplot.ErrNoCurves {
		log.WithField("figure", fig.Name).Warn("insufficient data, skipping figure")
		return false
	}
	if err != nil {
		log.WithField("figure", fig.Name).Error(err)
		return false
	}
	log.WithField("figure", fig.Name).Infof("wrote %s", path)
	return true
}

// sourceCurve runs the pipeline for one source and metric. It returns
// nil when the source is missing or yields no usable entities.
func sourceCurve(src *SourceConfig, path string, format invfmt.Format, metric invstat.Metric) *ecdf.Curve {
	logger := log.WithFields(log.Fields{"source": src.Label, "metric": metric.String()})

	r, err := invfmt.Open(path, format)
	if os.IsNotExist(err) {
		logger.Warnf("%s not found, skipping source", path)
		return nil
	}
	if err != nil {
		logger.Error(err)
		return nil
	}
	defer r.Close()

	agg, diag, err := invstat.Run(r, metric, src.Options())
	if err != nil {
		logger.Error(err)
		return nil
	}
	logDiagnostics(logger, metric, diag)
	if len(agg) == 0 {
		logger.Warn("no entities with more than one invocation, skipping source")
		return nil
	}
	return ecdf.Build(agg)
}

func logDiagnostics(logger *log.Entry, metric invstat.Metric, diag *invstat.Diagnostics) {
	if diag.Malformed > 0 {
		logger.Warnf("skipped %d malformed records", diag.Malformed)
	}
	if diag.Instances > 0 {
		logger.Infof("instances created: %d", diag.Instances)
	}
	if diag.TimeoutFiltered > 0 {
		logger.Infof("filtered %d timeout invocations (delay > 8000ms, %.2f%%)",
			diag.TimeoutFiltered, 100*diag.TimeoutFraction)
	}
	if metric == invstat.Slowdown {
		logger.Infof("failure fraction: %.4f", diag.FailedFraction)
		logger.Infof("slowdown < 1: %.4f", diag.SubUnityFraction)
	}
	logger.Infof("entities with >1 invocation: %d of %d", diag.ValidEntities, diag.Entities)
	logger.Infof("p50: %.2f p99: %.2f", diag.P50, diag.P99)
}
