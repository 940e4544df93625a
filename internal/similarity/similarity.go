// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity filters and scores substitution candidates for a
// normalized target entity.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/material-engine/pkg/types"
)

// matchThreshold is the relative deviation below which a key is reported
// as a match reason.
const matchThreshold = 0.10

// FindSimilar returns one result per candidate that satisfies every
// constraint. The target itself (same type and id) is never returned.
// Results keep candidate order; use Rank and Top to order and truncate.
func FindSimilar(target types.NormalizedEntity, candidates []types.NormalizedEntity, constraints []types.SubstitutionConstraint) []types.SimilarityResult {
	var results []types.SimilarityResult
	for _, c := range candidates {
		if c.ID == target.ID && c.Type == target.Type {
			continue
		}
		if !Satisfies(c, constraints) {
			continue
		}
		score, details := Score(target, c)
		results = append(results, types.SimilarityResult{
			Entity:       c,
			Score:        score,
			MatchDetails: details,
		})
	}
	return results
}

// Satisfies reports whether candidate meets every constraint. A candidate
// with no value for a constrained key fails that constraint.
func Satisfies(candidate types.NormalizedEntity, constraints []types.SubstitutionConstraint) bool {
	for _, con := range constraints {
		v, ok := constrainedValue(candidate, con.PropertyID)
		if !ok {
			return false
		}
		if con.Min != nil && v < *con.Min {
			return false
		}
		if con.Max != nil && v > *con.Max {
			return false
		}
	}
	return true
}

// constrainedValue resolves a constraint key against the candidate's
// properties first, then its metrics.
func constrainedValue(e types.NormalizedEntity, id types.PropertyID) (float64, bool) {
	if pv, ok := e.Properties[id]; ok {
		return pv.Value, true
	}
	if mv := e.Metrics[types.MetricKey(id)]; mv != nil {
		return *mv, true
	}
	return 0, false
}

// Score compares candidate to target over every metric and property key
// present on the target. Keys where either side is zero or missing are
// skipped. The score is 100 minus the average relative deviation in
// percent, clamped at 0. With nothing comparable the score is 0.
func Score(target, candidate types.NormalizedEntity) (float64, []string) {
	var (
		total   float64
		count   int
		details []string
	)

	compare := func(key string, tv, cv float64) {
		if tv == 0 || cv == 0 {
			return
		}
		dev := math.Abs(cv-tv) / math.Abs(tv)
		total += dev
		count++
		if dev < matchThreshold {
			details = append(details, fmt.Sprintf("similar %s", key))
		}
	}

	for _, key := range sortedMetricKeys(target.Metrics) {
		tv := target.Metrics[key]
		cv := candidate.Metrics[key]
		if tv == nil || cv == nil {
			continue
		}
		compare(string(key), *tv, *cv)
	}
	for _, id := range sortedPropertyIDs(target.Properties) {
		cv, ok := candidate.Properties[id]
		if !ok {
			continue
		}
		compare(string(id), target.Properties[id].Value, cv.Value)
	}

	if count == 0 {
		return 0, nil
	}
	avg := total / float64(count)
	return math.Max(0, 100-avg*100), details
}

// Rank sorts results by descending score. Ties keep their input order.
func Rank(results []types.SimilarityResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// Top returns at most k results. k <= 0 returns all of them.
func Top(results []types.SimilarityResult, k int) []types.SimilarityResult {
	if k <= 0 || len(results) <= k {
		return results
	}
	return results[:k]
}

// Keys are visited in sorted order so the floating-point sum, and with it
// the score, is identical across runs.
func sortedMetricKeys(m map[types.MetricKey]*float64) []types.MetricKey {
	keys := make([]types.MetricKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedPropertyIDs(m map[types.PropertyID]types.PropertyValue) []types.PropertyID {
	keys := make([]types.PropertyID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
