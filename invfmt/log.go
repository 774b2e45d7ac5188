// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package invfmt

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
)

// logLine matches one gateway invocation report. Capture groups, in
// order: run id, minute bucket, invocation id, timestamp (s),
// scheduling delay (ms), actual runtime (ms), requested runtime (ms).
var logLine = regexp.MustCompile(`^ID: default/trace-(\d+)-(\d+)/(\d+),.*TS: ([\d.]+)s,.*Delay: \+([\d.]+)ms,.*Runtime: ([\d.]+)/(\d+)ms`)

// A LogReader reads invocation records from the gateway's log output.
// Lines that do not match the invocation report format are skipped
// silently; gateway logs interleave unrelated output with reports.
//
// A LogReader retains ownership of the *Invocation it returns; a
// caller should copy anything it needs to retain across calls to Scan.
type LogReader struct {
	s        *bufio.Scanner
	fileName string
	line     int
	inv      Invocation
	err      error
}

// NewLogReader constructs a reader for the gateway log format.
// fileName is used in error messages; it is purely diagnostic.
func NewLogReader(r io.Reader, fileName string) *LogReader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	return &LogReader{s: bufio.NewScanner(r), fileName: fileName}
}

// Scan advances the reader to the next invocation report and reports
// whether one was read. Non-matching lines and warm-up records
// (timestamp below 600s) are consumed without being reported.
func (r *LogReader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		m := logLine.FindStringSubmatch(r.s.Text())
		if m == nil {
			continue
		}

		// The pattern only admits digit runs, so these parses
		// cannot fail.
		ts, _ := strconv.ParseFloat(m[4], 64)
		if ts < warmupSeconds {
			continue
		}
		delay, _ := strconv.ParseFloat(m[5], 64)
		runtime, _ := strconv.ParseFloat(m[6], 64)
		requested, _ := strconv.ParseFloat(m[7], 64)

		r.inv = Invocation{
			Format:           FormatLog,
			FuncKey:          m[1],
			InstanceKey:      m[1],
			Timestamp:        ts,
			Delay:            delay,
			ActualRuntime:    runtime,
			RequestedRuntime: requested,
			fileName:         r.fileName,
			line:             r.line,
		}
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = err
	}
	return false
}

// Result returns the record that was just read by Scan.
func (r *LogReader) Result() Record {
	return &r.inv
}

// Err returns the first I/O error encountered by the reader.
func (r *LogReader) Err() error {
	return r.err
}
