// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package invfmt

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// csvColumns are the columns a loader results file must carry. Files
// may have more; extra columns are ignored.
var csvColumns = []string{
	"invocationID",
	"instance",
	"responseTime",
	"requestedDuration",
	"actualDuration",
	"connectionTimeout",
	"functionTimeout",
}

// warmupID matches invocation identifiers issued during the first ten
// one-minute buckets of a run.
var warmupID = regexp.MustCompile(`^min[0-9]\.`)

// instanceSuffix matches the trailing replica counter and optional
// deployment suffix of an instance identifier.
var instanceSuffix = regexp.MustCompile(`(-[0-9]+(-[0-9]+-deployment-[0-9A-Za-z-]+)?)$`)

// A CSVReader reads invocation records from the loader's CSV output.
//
// A CSVReader retains ownership of the *Invocation it returns; a
// caller should copy anything it needs to retain across calls to Scan.
type CSVReader struct {
	cr       *csv.Reader
	fileName string
	line     int
	col      map[string]int
	inv      Invocation
	cur      Record
	err      error
}

// NewCSVReader constructs a reader for the loader CSV format.
// fileName is used in error messages; it is purely diagnostic.
func NewCSVReader(r io.Reader, fileName string) *CSVReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	if fileName == "" {
		fileName = "<unknown>"
	}
	return &CSVReader{cr: cr, fileName: fileName}
}

// readHeader consumes the header row and resolves column indexes.
// A missing required column is a fatal reader error.
func (r *CSVReader) readHeader() error {
	hdr, err := r.cr.Read()
	if err == io.EOF {
		// An empty file has no records, which is not an error
		// at this level.
		return io.EOF
	}
	if err != nil {
		return err
	}
	r.line++
	r.col = make(map[string]int)
	for i, name := range hdr {
		r.col[strings.TrimSpace(name)] = i
	}
	for _, name := range csvColumns {
		if _, ok := r.col[name]; !ok {
			return fmt.Errorf("%s: missing column %q", r.fileName, name)
		}
	}
	return nil
}

// Scan advances the reader to the next record and reports whether one
// was read. Warm-up rows are consumed without being reported.
func (r *CSVReader) Scan() bool {
	if r.err != nil {
		return false
	}
	if r.col == nil {
		switch err := r.readHeader(); err {
		case nil:
		case io.EOF:
			return false
		default:
			r.err = err
			return false
		}
	}
	for {
		row, err := r.cr.Read()
		if err == io.EOF {
			return false
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			r.line = perr.Line
			r.cur = &SyntaxError{r.fileName, perr.Line, perr.Err.Error()}
			return true
		}
		if err != nil {
			r.err = err
			return false
		}
		r.line++

		id, ok := r.field(row, "invocationID")
		if !ok {
			r.cur = r.newSyntaxError("missing invocationID field")
			return true
		}
		if warmupID.MatchString(id) {
			// Warm-up window; not an analysis record.
			continue
		}
		rec, serr := r.parseRow(row)
		if serr != nil {
			r.cur = serr
			return true
		}
		r.inv = *rec
		r.cur = &r.inv
		return true
	}
}

func (r *CSVReader) field(row []string, name string) (string, bool) {
	i := r.col[name]
	if i >= len(row) {
		return "", false
	}
	return row[i], true
}

func (r *CSVReader) newSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg}
}

func (r *CSVReader) parseRow(row []string) (*Invocation, *SyntaxError) {
	inv := &Invocation{
		Format:   FormatCSV,
		fileName: r.fileName,
		line:     r.line,
	}

	instance, ok := r.field(row, "instance")
	if !ok {
		return nil, r.newSyntaxError("missing instance field")
	}
	inv.Instance = instance
	inv.FuncKey = instance
	if i := strings.IndexByte(instance, '-'); i >= 0 {
		inv.FuncKey = instance[:i]
	}
	inv.InstanceKey = instanceSuffix.ReplaceAllString(instance, "")

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"responseTime", &inv.ResponseTime},
		{"requestedDuration", &inv.RequestedDuration},
		{"actualDuration", &inv.ActualDuration},
	} {
		s, ok := r.field(row, f.name)
		if !ok {
			return nil, r.newSyntaxError("missing " + f.name + " field")
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, r.newSyntaxError("parsing " + f.name + ": " + err.Error())
		}
		*f.dst = v
	}

	for _, f := range []string{"connectionTimeout", "functionTimeout"} {
		s, ok := r.field(row, f)
		if !ok {
			return nil, r.newSyntaxError("missing " + f + " field")
		}
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, r.newSyntaxError("parsing " + f + ": " + err.Error())
		}
		inv.Failed = inv.Failed || v
	}

	return inv, nil
}

// Result returns the record that was just read by Scan.
func (r *CSVReader) Result() Record {
	return r.cur
}

// Err returns the first fatal error encountered by the reader, either
// an I/O error or a missing required column.
func (r *CSVReader) Err() error {
	return r.err
}
