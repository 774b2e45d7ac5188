// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCSV = `invocationID,instance,responseTime,requestedDuration,actualDuration,connectionTimeout,functionTimeout
min15.0,f1-0,100000,100000,90000,false,false
min15.1,f1-1,150000,100000,90000,false,false
min16.0,f2-0,300000,100000,90000,false,false
min16.1,f2-1,500000,100000,90000,false,false
`

const testLog = `gateway starting
ID: default/trace-1-12/0, CC: 1, TS: 700.0s, Delay: +10.0ms, Runtime: 100.0/100ms
ID: default/trace-1-12/1, CC: 1, TS: 701.0s, Delay: +30.0ms, Runtime: 120.0/100ms
ID: default/trace-2-12/0, CC: 1, TS: 700.0s, Delay: +5.0ms, Runtime: 100.0/100ms
ID: default/trace-2-13/0, CC: 1, TS: 760.0s, Delay: +7.0ms, Runtime: 100.0/100ms
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0666); err != nil {
		t.Fatal(err)
	}
}

func TestRenderFigure(t *testing.T) {
	results := t.TempDir()
	writeFile(t, filepath.Join(results, "k8s", "default", "k8s.500.csv"), testCSV)
	writeFile(t, filepath.Join(results, "kd", "test", "kd.500.log"), testLog)

	old := *flagResults
	*flagResults = results
	defer func() { *flagResults = old }()

	outDir := filepath.Join(results, "figures", "test")
	fig := &DefaultConfig().Figures[0]
	if !render(fig, "test", outDir) {
		t.Fatal("figure was not rendered")
	}
	if _, err := os.Stat(filepath.Join(outDir, "knative.png")); err != nil {
		t.Error(err)
	}
}

func TestRenderFigureMissingSource(t *testing.T) {
	// Only the log source exists; the figure still renders with the
	// curves that remain.
	results := t.TempDir()
	writeFile(t, filepath.Join(results, "kd", "test", "kd.500.log"), testLog)

	old := *flagResults
	*flagResults = results
	defer func() { *flagResults = old }()

	outDir := filepath.Join(results, "figures", "test")
	fig := &DefaultConfig().Figures[0]
	if !render(fig, "test", outDir) {
		t.Fatal("figure was not rendered")
	}
}

func TestRenderFigureNoSources(t *testing.T) {
	results := t.TempDir()

	old := *flagResults
	*flagResults = results
	defer func() { *flagResults = old }()

	fig := &DefaultConfig().Figures[0]
	if render(fig, "test", filepath.Join(results, "figures", "test")) {
		t.Error("figure rendered with no sources")
	}
	entries, err := os.ReadDir(results)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			t.Errorf("unexpected output %s", e.Name())
		}
	}
}
