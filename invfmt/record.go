// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package invfmt parses raw per-invocation results produced by the
// trace experiment harness.
//
// Two file formats carry invocation records: the loader's CSV output
// (FormatCSV) and the gateway's free-text log (FormatLog). Both are
// exposed through the same Scanner-style Reader interface producing a
// stream of Records. Parse errors are non-fatal: a malformed row or
// line yields a *SyntaxError record (or is skipped entirely for log
// lines, which are interleaved with unrelated output) and scanning
// continues.
package invfmt

import "fmt"

// A Format identifies one of the raw invocation-record file formats.
type Format int

const (
	// FormatCSV is the loader's tabular output. Times are in
	// microseconds.
	FormatCSV Format = iota
	// FormatLog is the gateway's per-invocation log line format.
	// Times are in milliseconds.
	FormatLog
)

// ParseFormat converts a format name ("csv" or "log") to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv":
		return FormatCSV, nil
	case "log":
		return FormatLog, nil
	}
	return 0, fmt.Errorf("unknown record format %q", s)
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatLog:
		return "log"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// warmupSeconds is the warm-up window excluded from analysis. For CSV
// input the window is identified positionally by the invocation ID
// prefix (minutes 0-9); for log input by the timestamp.
const warmupSeconds = 600

// An Invocation is a single invocation observation. Which measurement
// fields are populated depends on Format.
type Invocation struct {
	// Format records which input format this invocation was parsed
	// from and therefore which field group below is meaningful.
	Format Format

	// FuncKey groups invocations of the same logical function.
	// CSV: the instance identifier up to the first "-" (the function
	// hash). Log: the run identifier.
	FuncKey string

	// InstanceKey groups invocations served by the same instance.
	// CSV: the instance identifier with the trailing replica and
	// deployment suffix stripped. Log: same as FuncKey, since the
	// log format carries no instance identity.
	InstanceKey string

	// Instance is the raw, unstripped instance identifier (CSV only).
	Instance string

	// Timestamp is seconds since experiment start (log only).
	Timestamp float64

	// CSV measurements, microseconds.
	ResponseTime      float64
	RequestedDuration float64
	ActualDuration    float64

	// Failed reports a connection or function timeout (CSV only;
	// the log format has no failure flag).
	Failed bool

	// Log measurements, milliseconds.
	Delay            float64
	ActualRuntime    float64
	RequestedRuntime float64

	fileName string
	line     int
}

// Pos returns the file name and 1-based line this invocation was
// parsed from.
func (inv *Invocation) Pos() (fileName string, line int) {
	return inv.fileName, inv.line
}

// A SyntaxError describes a malformed row or line in a results file.
// It is delivered in the record stream so the caller can count or
// report it without aborting the scan.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A Record is a single record read from a results file. It is either
// an *Invocation or a *SyntaxError.
type Record interface {
	// Pos returns the position of this record as a file name and a
	// 1-based line number within that file.
	Pos() (fileName string, line int)
}

var _ Record = (*Invocation)(nil)
var _ Record = (*SyntaxError)(nil)

// A Reader produces a stream of Records from one results file.
// Its API is modeled on bufio.Scanner: Scan advances to the next
// record, Result returns it, and Err reports the first I/O error.
type Reader interface {
	Scan() bool
	Result() Record
	Err() error
}
