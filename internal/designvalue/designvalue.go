// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package designvalue computes descriptive statistics and one-sided
// tolerance-limit design values (A-basis, B-basis) from test matrices.
package designvalue

import (
	"math"
	"sort"

	"github.com/pdiddy/material-engine/internal/numeric"
	"github.com/pdiddy/material-engine/pkg/types"
)

// KFactors is a pair of one-sided tolerance-limit factors at 95% confidence.
// KA covers 99% of the population (A-basis), KB covers 90% (B-basis).
type KFactors struct {
	KA float64
	KB float64
}

// MinDesignSamples is the smallest sample size for which design values are
// reported.
const MinDesignSamples = 3

// kFactorTable holds the factors for n = 2..10: the CMH-17 one-sided
// normal tolerance factors rounded to one decimal, except n = 3, which is
// fixed at {11.2, 8.8}. Qualification results depend on these exact values.
var kFactorTable = map[int]KFactors{
	2:  {KA: 37.1, KB: 20.6},
	3:  {KA: 11.2, KB: 8.8},
	4:  {KA: 7.0, KB: 4.2},
	5:  {KA: 5.7, KB: 3.4},
	6:  {KA: 5.1, KB: 3.0},
	7:  {KA: 4.6, KB: 2.8},
	8:  {KA: 4.4, KB: 2.6},
	9:  {KA: 4.1, KB: 2.5},
	10: {KA: 4.0, KB: 2.4},
}

// largeSampleFactors is used for every n above the table.
var largeSampleFactors = KFactors{KA: 3.0, KB: 2.5}

// GetKFactors returns the factors for sample size n. ok is false for n < 2,
// where no factor exists.
func GetKFactors(n int) (KFactors, bool) {
	if n > 10 {
		return largeSampleFactors, true
	}
	k, ok := kFactorTable[n]
	return k, ok
}

// Stats holds the statistics of one matrix column. Optional values are nil
// when unavailable: everything but N when no cell parsed, StdDev and CV
// when N <= 1 (CV also when Mean is 0), design values when not requested
// or N < MinDesignSamples.
type Stats struct {
	N       int      `json:"n" yaml:"n"`
	Mean    *float64 `json:"mean" yaml:"mean"`
	Min     *float64 `json:"min" yaml:"min"`
	Max     *float64 `json:"max" yaml:"max"`
	StdDev  *float64 `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`
	CV      *float64 `json:"cv,omitempty" yaml:"cv,omitempty"`
	BValue  *float64 `json:"b_value,omitempty" yaml:"b_value,omitempty"`
	AValue  *float64 `json:"a_value,omitempty" yaml:"a_value,omitempty"`
	KFactor *float64 `json:"k_factor,omitempty" yaml:"k_factor,omitempty"`
}

// ComputeDesignStats parses the raw cells of one property column and
// computes its statistics. Cells that do not parse are dropped from N.
// StdDev is the sample standard deviation (denominator N-1). When
// statsTypes contains StatsDesign and N >= MinDesignSamples, B- and
// A-basis values are mean - k*stdDev and KFactor records KB.
func ComputeDesignStats(column []string, statsTypes []types.StatsType) Stats {
	values := make([]float64, 0, len(column))
	for _, cell := range column {
		if v, ok := numeric.ParseEngineeringNumber(cell); ok {
			values = append(values, v)
		}
	}

	st := Stats{N: len(values)}
	if st.N == 0 {
		return st
	}

	lo, hi, sum := values[0], values[0], 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	mean := sum / float64(st.N)
	st.Mean, st.Min, st.Max = &mean, &lo, &hi

	if st.N <= 1 {
		return st
	}

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(sq / float64(st.N-1))
	st.StdDev = &sd
	if mean != 0 {
		cv := sd / mean * 100
		st.CV = &cv
	}

	if !wants(statsTypes, types.StatsDesign) || st.N < MinDesignSamples {
		return st
	}
	k, ok := GetKFactors(st.N)
	if !ok {
		return st
	}
	b := mean - k.KB*sd
	a := mean - k.KA*sd
	kb := k.KB
	st.BValue, st.AValue, st.KFactor = &b, &a, &kb
	return st
}

func wants(statsTypes []types.StatsType, want types.StatsType) bool {
	for _, s := range statsTypes {
		if s == want {
			return true
		}
	}
	return false
}

// PropertyStats pairs a property with its column statistics and the
// statistics the test method asked for.
type PropertyStats struct {
	PropertyID types.PropertyID  `json:"property_id" yaml:"property_id"`
	StatsTypes []types.StatsType `json:"stats_types" yaml:"stats_types"`
	Stats      Stats             `json:"stats" yaml:"stats"`
}

// ComputeMatrix computes statistics for every property configured on
// method, in configuration order. If method configures no properties,
// every property found in the matrix is reported with StatsMean only, in
// order of first appearance.
func ComputeMatrix(matrix types.TestMatrix, method types.TestMethod) []PropertyStats {
	configs := method.Properties
	if len(configs) == 0 {
		configs = defaultConfigs(matrix)
	}

	out := make([]PropertyStats, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, PropertyStats{
			PropertyID: cfg.PropertyID,
			StatsTypes: cfg.StatsTypes,
			Stats:      ComputeDesignStats(matrix.Column(cfg.PropertyID), cfg.StatsTypes),
		})
	}
	return out
}

func defaultConfigs(matrix types.TestMatrix) []types.TestMethodPropertyConfig {
	seen := make(map[types.PropertyID]bool)
	var configs []types.TestMethodPropertyConfig
	for _, s := range matrix.Specimens {
		for _, id := range sortedResultKeys(s.Results) {
			if seen[id] {
				continue
			}
			seen[id] = true
			configs = append(configs, types.TestMethodPropertyConfig{
				PropertyID: id,
				StatsTypes: []types.StatsType{types.StatsMean},
			})
		}
	}
	return configs
}

func sortedResultKeys(results map[types.PropertyID]string) []types.PropertyID {
	keys := make([]types.PropertyID, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
