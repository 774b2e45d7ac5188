// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package invstat derives per-entity metric distributions from raw
// invocation records.
//
// The pipeline applies a fixed sequence of validity filters to a
// record stream, computes one metric per surviving record, aggregates
// records into a per-entity arithmetic mean, and returns an explicit
// Diagnostics value with the counts each filter observed. The filter
// order is a contract: a record excluded for an earlier reason must
// not be counted by a later filter's diagnostic.
package invstat

import (
	"github.com/eth-easl/invstat/ecdf"
	"github.com/eth-easl/invstat/invfmt"
)

// A Metric selects which per-invocation quantity the pipeline
// aggregates.
type Metric int

const (
	// Slowdown is observed total latency relative to the requested
	// duration, grouped per function.
	Slowdown Metric = iota
	// SchedulingLatency is the queuing/startup portion of latency in
	// milliseconds, grouped per instance.
	SchedulingLatency
)

func (m Metric) String() string {
	switch m {
	case Slowdown:
		return "slowdown"
	case SchedulingLatency:
		return "scheduling latency"
	}
	return "unknown"
}

const (
	// timeoutDelayMS is the scheduling delay above which an
	// invocation is considered timed out when timeout filtering is
	// enabled.
	timeoutDelayMS = 8000

	// outlierLatencyMS bounds scheduling latency for sources with
	// known measurement artifacts when outlier filtering is enabled.
	outlierLatencyMS = 1500
)

// Options selects the optional filters of a pipeline run. Both are
// per-source capabilities, not global defaults.
type Options struct {
	// FilterTimeout drops records whose scheduling delay exceeds
	// 8000ms. Used for log sources, which carry no failure flag.
	FilterTimeout bool

	// FilterOutliers drops scheduling latencies of 1500ms or more.
	// Used for CSV sources known to exhibit measurement artifacts;
	// it has no effect on the slowdown metric.
	FilterOutliers bool
}

// An Aggregate maps an entity key to the mean metric value over the
// entity's surviving invocations.
type Aggregate map[string]float64

// Diagnostics reports the counts and fractions printed alongside the
// curves. Fractions are in [0, 1] and are zero when their denominator
// is zero.
type Diagnostics struct {
	// Records is the number of well-formed post-warm-up records read.
	Records int
	// Malformed is the number of rows or lines that failed to parse.
	// Malformed records are not counted in any fraction denominator.
	Malformed int

	// FailedFraction is the fraction of records flagged as failed,
	// over all post-warm-up records.
	FailedFraction float64

	// TimeoutFiltered is the number of records dropped by the
	// timeout filter, and TimeoutFraction their fraction of the
	// records the filter saw.
	TimeoutFiltered int
	TimeoutFraction float64

	// SubUnityFraction is the fraction of slowdown values below 1
	// among records surviving the failure filter. Such values are
	// measurement noise, not real speed-ups, and are dropped.
	SubUnityFraction float64

	// Instances is the number of distinct instances observed
	// (CSV sources only; zero for log sources).
	Instances int

	// Entities is the number of distinct entities before the
	// minimum-sample filter; ValidEntities counts those with more
	// than one surviving invocation.
	Entities      int
	ValidEntities int

	// P50 and P99 are percentiles of the per-entity means.
	P50 float64
	P99 float64
}

// Run reads all records from r and reduces them to a per-entity
// Aggregate of the chosen metric.
//
// Filters apply in a fixed order: warm-up exclusion (already applied
// by the reader), timeout exclusion, failure exclusion, metric-domain
// exclusion, then the minimum-sample rule. A source that yields zero
// usable entities produces an empty Aggregate and no error; only I/O
// and header-level failures are returned as errors.
func Run(r invfmt.Reader, metric Metric, opts Options) (Aggregate, *Diagnostics, error) {
	diag := new(Diagnostics)

	var recs []invfmt.Invocation
	for r.Scan() {
		switch rec := r.Result().(type) {
		case *invfmt.Invocation:
			recs = append(recs, *rec)
		case *invfmt.SyntaxError:
			diag.Malformed++
		}
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}
	diag.Records = len(recs)

	// Failure fraction and instance count are observational: they
	// describe the post-warm-up stream before any dropping.
	failed := 0
	instances := make(map[string]bool)
	for i := range recs {
		if recs[i].Failed {
			failed++
		}
		if recs[i].Instance != "" {
			instances[recs[i].Instance] = true
		}
	}
	if len(recs) > 0 {
		diag.FailedFraction = float64(failed) / float64(len(recs))
	}
	diag.Instances = len(instances)

	recs = filterTimeout(recs, opts, diag)
	recs = filterFailed(recs)
	samples := computeMetric(recs, metric, opts, diag)
	agg := aggregate(samples, diag)

	diag.P50, diag.P99 = ecdf.Quantiles(agg)
	return agg, diag, nil
}

// filterTimeout drops records whose scheduling delay exceeds the
// timeout threshold, recording how many were dropped.
func filterTimeout(recs []invfmt.Invocation, opts Options, diag *Diagnostics) []invfmt.Invocation {
	if !opts.FilterTimeout || len(recs) == 0 {
		return recs
	}
	kept := recs[:0]
	for _, rec := range recs {
		if rec.Delay > timeoutDelayMS {
			continue
		}
		kept = append(kept, rec)
	}
	diag.TimeoutFiltered = len(recs) - len(kept)
	diag.TimeoutFraction = float64(diag.TimeoutFiltered) / float64(len(recs))
	return kept
}

// filterFailed drops records flagged as failed. It must run before
// any metric-domain filter so that failed invocations are excluded
// for the failure reason and never reach a metric diagnostic.
func filterFailed(recs []invfmt.Invocation) []invfmt.Invocation {
	kept := recs[:0]
	for _, rec := range recs {
		if rec.Failed {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// A sample is one surviving invocation reduced to its entity key and
// metric value.
type sample struct {
	key   string
	value float64
}

// computeMetric derives the metric value for each record and applies
// the metric-domain filter: slowdown below 1 (counted in the
// diagnostics), non-positive requested duration, and, when enabled,
// scheduling-latency outliers.
func computeMetric(recs []invfmt.Invocation, metric Metric, opts Options, diag *Diagnostics) []sample {
	samples := make([]sample, 0, len(recs))
	subUnity := 0
	for i := range recs {
		rec := &recs[i]
		switch metric {
		case Slowdown:
			v, ok := slowdown(rec)
			if !ok {
				continue
			}
			if v < 1 {
				subUnity++
				continue
			}
			samples = append(samples, sample{rec.FuncKey, v})
		case SchedulingLatency:
			v := schedLatency(rec)
			if opts.FilterOutliers && v >= outlierLatencyMS {
				continue
			}
			samples = append(samples, sample{rec.InstanceKey, v})
		}
	}
	if metric == Slowdown && len(recs) > 0 {
		diag.SubUnityFraction = float64(subUnity) / float64(len(recs))
	}
	return samples
}

// slowdown computes observed total latency over requested duration.
// ok is false when the requested duration is non-positive, which
// makes the ratio undefined.
func slowdown(rec *invfmt.Invocation) (v float64, ok bool) {
	switch rec.Format {
	case invfmt.FormatCSV:
		if rec.RequestedDuration <= 0 {
			return 0, false
		}
		return rec.ResponseTime / rec.RequestedDuration, true
	default:
		if rec.RequestedRuntime <= 0 {
			return 0, false
		}
		return (rec.Delay + rec.ActualRuntime) / rec.RequestedRuntime, true
	}
}

// schedLatency computes scheduling latency in milliseconds. CSV
// sources measure in microseconds and report total response time, so
// the execution time is subtracted and the result rescaled; log
// sources report the delay directly.
func schedLatency(rec *invfmt.Invocation) float64 {
	if rec.Format == invfmt.FormatCSV {
		return (rec.ResponseTime - rec.ActualDuration) / 1000
	}
	return rec.Delay
}

// aggregate groups samples by entity, drops entities with a single
// sample, and reduces each remaining group to its arithmetic mean.
func aggregate(samples []sample, diag *Diagnostics) Aggregate {
	sum := make(map[string]float64)
	count := make(map[string]int)
	for _, s := range samples {
		sum[s.key] += s.value
		count[s.key]++
	}
	diag.Entities = len(count)

	agg := make(Aggregate)
	for key, n := range count {
		if n <= 1 {
			// A single sample has no meaningful mean.
			continue
		}
		agg[key] = sum[key] / float64(n)
	}
	diag.ValidEntities = len(agg)
	return agg
}
