// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset loads dataset bundles and checks their references.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-engine/pkg/types"
)

// FileSuffix marks dataset bundle files in a data directory.
const FileSuffix = "-dataset.yaml"

// Load reads one dataset bundle.
func Load(path string) (*types.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	var ds types.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", filepath.Base(path), err)
	}
	return &ds, nil
}

// Files returns the ordered list of dataset bundle paths in dir.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Name returns the bundle name of a dataset file path: the file name
// without FileSuffix.
func Name(path string) string {
	return strings.TrimSuffix(filepath.Base(path), FileSuffix)
}

// Validate reports dangling references in ds, checked against the property
// catalog and test methods in ds plus known. Problems are sorted and
// de-duplicated; an empty result means ds is consistent.
func Validate(ds *types.Dataset, known *types.Snapshot) []string {
	props := make(map[types.PropertyID]bool)
	methods := make(map[string]bool)
	for _, p := range ds.Properties {
		props[p.ID] = true
	}
	for _, m := range ds.TestMethods {
		methods[m.ID] = true
	}
	if known != nil {
		for _, p := range known.Properties {
			props[p.ID] = true
		}
		for _, m := range known.TestMethods {
			methods[m.ID] = true
		}
	}

	seen := make(map[string]bool)
	report := func(format string, args ...any) {
		seen[fmt.Sprintf(format, args...)] = true
	}

	for _, m := range ds.Measurements {
		if n := m.OwnerCount(); n != 1 {
			report("measurement %s has %d owners, want 1", m.ID, n)
		}
		if !props[m.PropertyID] {
			report("measurement %s references unknown property %s", m.ID, m.PropertyID)
		}
	}
	for _, p := range ds.RequirementProfiles {
		for _, r := range p.Rules {
			if !props[r.PropertyID] && !isMetric(r.PropertyID) {
				report("requirement profile %s references unknown property %s", p.ID, r.PropertyID)
			}
		}
	}
	for _, tm := range ds.TestMethods {
		for _, c := range tm.Properties {
			if !props[c.PropertyID] {
				report("test method %s references unknown property %s", tm.ID, c.PropertyID)
			}
		}
	}
	for _, mx := range ds.TestMatrices {
		if !methods[mx.TestMethodID] {
			report("test matrix %s references unknown test method %s", mx.ID, mx.TestMethodID)
		}
	}

	problems := make([]string, 0, len(seen))
	for p := range seen {
		problems = append(problems, p)
	}
	sort.Strings(problems)
	return problems
}

func isMetric(id types.PropertyID) bool {
	switch types.MetricKey(id) {
	case types.MetricTotalWeight, types.MetricTotalThickness:
		return true
	}
	return false
}
