// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history extracts the time series of one property for one entity
// and summarizes it.
package history

import (
	"math"
	"sort"

	"github.com/pdiddy/material-engine/pkg/types"
)

// GetHistory returns the measurements of propertyID owned by entityID
// through the material or layup owner field, ascending by date. Points
// with equal dates keep input order. With LimitCount only the most recent
// limit.Count points are returned; with LimitDate only points dated within
// [Start, End], where a zero bound is open. Inactive measurements are
// returned with Active=false so callers can show them; Summarize skips them.
func GetHistory(measurements []types.Measurement, entityID string, propertyID types.PropertyID, limit types.HistoryLimit) []types.HistoryPoint {
	if entityID == "" {
		return nil
	}

	var points []types.HistoryPoint
	for _, m := range measurements {
		if m.PropertyID != propertyID {
			continue
		}
		if m.MaterialID != entityID && m.LayupID != entityID {
			continue
		}
		points = append(points, types.HistoryPoint{
			ID:     m.ID,
			Date:   m.Date,
			Value:  m.ResultValue,
			LabID:  m.LaboratoryID,
			Active: m.IsActive(),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	switch limit.Type {
	case types.LimitCount:
		if limit.Count <= 0 {
			return []types.HistoryPoint{}
		}
		if len(points) > limit.Count {
			points = points[len(points)-limit.Count:]
		}
	case types.LimitDate:
		window := points[:0:0]
		for _, p := range points {
			if !limit.Start.IsZero() && p.Date.Before(limit.Start) {
				continue
			}
			if !limit.End.IsZero() && p.Date.After(limit.End) {
				continue
			}
			window = append(window, p)
		}
		points = window
	}

	return points
}

// Summary holds descriptive statistics of a history series. All values
// are nil when Count is 0.
type Summary struct {
	Count  int      `json:"count" yaml:"count"`
	Min    *float64 `json:"min" yaml:"min"`
	Max    *float64 `json:"max" yaml:"max"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	StdDev *float64 `json:"std_dev" yaml:"std_dev"`
}

// Summarize computes min, max, mean and the population standard deviation
// (denominator N) of the active points whose id is not in exclude. Outlier
// removal is expressed through exclude; points is never modified.
func Summarize(points []types.HistoryPoint, exclude []string) Summary {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var values []float64
	for _, p := range points {
		if !p.Active || skip[p.ID] {
			continue
		}
		values = append(values, p.Value)
	}
	if len(values) == 0 {
		return Summary{}
	}

	lo, hi, sum := values[0], values[0], 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	n := float64(len(values))
	mean := sum / n

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(sq / n)

	return Summary{
		Count:  len(values),
		Min:    &lo,
		Max:    &hi,
		Mean:   &mean,
		StdDev: &sd,
	}
}
