// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package invfmt

import (
	"strings"
	"testing"
)

func TestLogReader(t *testing.T) {
	data := strings.Join([]string{
		"starting gateway on :8080",
		"ID: default/trace-3-12/45, CC: 2, TS: 612.500s, Delay: +14.2ms, Runtime: 103.5/100ms",
		"scaling deployment trace-3 to 2 replicas",
		"ID: default/trace-7-13/0, CC: 1, TS: 781.0s, Delay: +250.0ms, Runtime: 55.0/50ms",
	}, "\n")
	invs, errs := scanAll(t, NewLogReader(strings.NewReader(data), "test"))
	if len(errs) != 0 {
		t.Errorf("got %d syntax errors, want 0", len(errs))
	}
	if len(invs) != 2 {
		t.Fatalf("got %d records, want 2", len(invs))
	}

	got := invs[0]
	if got.Format != FormatLog {
		t.Errorf("Format = %v, want %v", got.Format, FormatLog)
	}
	if got.FuncKey != "3" || got.InstanceKey != "3" {
		t.Errorf("keys = (%q, %q), want (3, 3)", got.FuncKey, got.InstanceKey)
	}
	if got.Timestamp != 612.5 || got.Delay != 14.2 || got.ActualRuntime != 103.5 || got.RequestedRuntime != 100 {
		t.Errorf("fields = (%v, %v, %v, %v), want (612.5, 14.2, 103.5, 100)",
			got.Timestamp, got.Delay, got.ActualRuntime, got.RequestedRuntime)
	}
	if file, line := got.Pos(); file != "test" || line != 2 {
		t.Errorf("Pos() = (%q, %d), want (test, 2)", file, line)
	}
}

func TestLogReaderWarmup(t *testing.T) {
	data := strings.Join([]string{
		"ID: default/trace-1-0/0, CC: 1, TS: 12.0s, Delay: +5.0ms, Runtime: 100.0/100ms",
		"ID: default/trace-1-9/3, CC: 1, TS: 599.9s, Delay: +5.0ms, Runtime: 100.0/100ms",
		"ID: default/trace-1-10/0, CC: 1, TS: 600.0s, Delay: +5.0ms, Runtime: 100.0/100ms",
		"ID: default/trace-1-11/2, CC: 1, TS: 661.0s, Delay: +5.0ms, Runtime: 100.0/100ms",
	}, "\n")
	invs, _ := scanAll(t, NewLogReader(strings.NewReader(data), "test"))
	// The warm-up boundary is 600s, inclusive of the boundary itself.
	if len(invs) != 2 {
		t.Fatalf("got %d records, want 2", len(invs))
	}
	if invs[0].Timestamp != 600 {
		t.Errorf("first surviving timestamp = %v, want 600", invs[0].Timestamp)
	}
}

func TestLogReaderSkipsNonMatching(t *testing.T) {
	data := strings.Join([]string{
		"",
		"E0212 gateway error: connection refused",
		"ID default/trace-1-12/0 TS: 700.0s",
		"ID: default/trace-x-12/0, TS: 700.0s, Delay: +1.0ms, Runtime: 1.0/1ms",
	}, "\n")
	invs, errs := scanAll(t, NewLogReader(strings.NewReader(data), "test"))
	if len(invs) != 0 || len(errs) != 0 {
		t.Errorf("got %d records and %d errors, want none", len(invs), len(errs))
	}
}
