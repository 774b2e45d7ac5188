// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eth-easl/invstat/invfmt"
	"github.com/eth-easl/invstat/invstat"
)

// A Config lists the comparison figures to produce. Each figure
// compares the systems given by its sources, one curve per source.
type Config struct {
	Figures []FigureConfig `yaml:"figures"`
}

// A FigureConfig names one output figure and its input sources.
type FigureConfig struct {
	Name    string         `yaml:"name"`
	Sources []SourceConfig `yaml:"sources"`
}

// A SourceConfig describes one results file. Path is relative to the
// results directory and may contain a "{run}" placeholder replaced by
// the run identifier.
type SourceConfig struct {
	Label          string `yaml:"label"`
	Path           string `yaml:"path"`
	Format         string `yaml:"format"`
	FilterTimeout  bool   `yaml:"filter_timeout"`
	FilterOutliers bool   `yaml:"filter_outliers"`
}

// ResolvePath substitutes the run identifier into the path template.
func (s *SourceConfig) ResolvePath(runID string) string {
	return strings.ReplaceAll(s.Path, "{run}", runID)
}

// Options returns the pipeline options this source requests.
func (s *SourceConfig) Options() invstat.Options {
	return invstat.Options{
		FilterTimeout:  s.FilterTimeout,
		FilterOutliers: s.FilterOutliers,
	}
}

// ParseFormat resolves the source's format tag.
func (s *SourceConfig) ParseFormat() (invfmt.Format, error) {
	return invfmt.ParseFormat(s.Format)
}

// DefaultConfig is the comparison set of the trace experiment: a
// Knative figure comparing the stock and kubelet-direct control
// planes, and a Dirigent figure comparing Dirigent with the two
// replicated setups. Timeout filtering applies to the Kn/Kd log
// source only; the Dirigent CSV source filters scheduling-latency
// measurement artifacts.
func DefaultConfig() *Config {
	return &Config{
		Figures: []FigureConfig{
			{
				Name: "knative",
				Sources: []SourceConfig{
					{Label: "Kn/K8s", Path: "k8s/default/k8s.500.csv", Format: "csv"},
					{Label: "Kn/Kd", Path: "kd/{run}/kd.500.log", Format: "log", FilterTimeout: true},
				},
			},
			{
				Name: "dirigent",
				Sources: []SourceConfig{
					{Label: "Dirigent", Path: "dirigent/default/dirigent.500.csv", Format: "csv", FilterOutliers: true},
					{Label: "Dr/K8s+", Path: "k8s+/{run}/k8s+.500.log", Format: "log"},
					{Label: "Dr/Kd+", Path: "kd+/{run}/kd+.500.log", Format: "log"},
				},
			},
		},
	}
}

// LoadConfig reads a figure configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	if len(cfg.Figures) == 0 {
		return nil, fmt.Errorf("%s: no figures defined", path)
	}
	for _, fig := range cfg.Figures {
		if fig.Name == "" {
			return nil, fmt.Errorf("%s: figure with no name", path)
		}
		for _, src := range fig.Sources {
			if _, err := invfmt.ParseFormat(src.Format); err != nil {
				return nil, fmt.Errorf("%s: figure %s: source %s: %v", path, fig.Name, src.Label, err)
			}
		}
	}
	return cfg, nil
}
