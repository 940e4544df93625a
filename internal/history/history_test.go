// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/material-engine/pkg/types"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func sampleMeasurements() []types.Measurement {
	off := false
	return []types.Measurement{
		{ID: "m5", MaterialID: "mat", PropertyID: "tensile", ResultValue: 105, Date: day(5), LaboratoryID: "lab-a"},
		{ID: "m1", MaterialID: "mat", PropertyID: "tensile", ResultValue: 101, Date: day(1)},
		{ID: "m3", MaterialID: "mat", PropertyID: "tensile", ResultValue: 103, Date: day(3)},
		{ID: "l2", LayupID: "mat", PropertyID: "tensile", ResultValue: 102, Date: day(2)},
		{ID: "a4", AssemblyID: "mat", PropertyID: "tensile", ResultValue: 999, Date: day(4)},
		{ID: "d4", MaterialID: "mat", PropertyID: "density", ResultValue: 1.5, Date: day(4)},
		{ID: "x4", MaterialID: "other", PropertyID: "tensile", ResultValue: 50, Date: day(4)},
		{ID: "i6", MaterialID: "mat", PropertyID: "tensile", ResultValue: 500, Date: day(6), Active: &off},
	}
}

func pointIDs(points []types.HistoryPoint) []string {
	out := []string{}
	for _, p := range points {
		out = append(out, p.ID)
	}
	return out
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name  string
		limit types.HistoryLimit
		want  []string
	}{
		{"no limit returns full ascending series", types.HistoryLimit{}, []string{"m1", "l2", "m3", "m5", "i6"}},
		{"count keeps most recent", types.HistoryLimit{Type: types.LimitCount, Count: 2}, []string{"m5", "i6"}},
		{"count larger than series", types.HistoryLimit{Type: types.LimitCount, Count: 50}, []string{"m1", "l2", "m3", "m5", "i6"}},
		{"zero count", types.HistoryLimit{Type: types.LimitCount, Count: 0}, []string{}},
		{"date window inclusive", types.HistoryLimit{Type: types.LimitDate, Start: day(2), End: day(5)}, []string{"l2", "m3", "m5"}},
		{"open start", types.HistoryLimit{Type: types.LimitDate, End: day(2)}, []string{"m1", "l2"}},
		{"open end", types.HistoryLimit{Type: types.LimitDate, Start: day(5)}, []string{"m5", "i6"}},
		{"empty window", types.HistoryLimit{Type: types.LimitDate, Start: day(10), End: day(12)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetHistory(sampleMeasurements(), "mat", "tensile", tt.limit)
			assert.Equal(t, tt.want, pointIDs(got))
		})
	}
}

func TestGetHistoryOrderingAndLength(t *testing.T) {
	ms := sampleMeasurements()
	for n := 0; n <= 7; n++ {
		got := GetHistory(ms, "mat", "tensile", types.HistoryLimit{Type: types.LimitCount, Count: n})
		assert.Len(t, got, min(n, 5))
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].Date.Before(got[i-1].Date), "series not ascending at %d", i)
		}
	}
}

func TestGetHistoryCarriesMeasurementFields(t *testing.T) {
	got := GetHistory(sampleMeasurements(), "mat", "tensile", types.HistoryLimit{Type: types.LimitCount, Count: 2})
	require.Len(t, got, 2)
	assert.Equal(t, types.HistoryPoint{ID: "m5", Date: day(5), Value: 105, LabID: "lab-a", Active: true}, got[0])
	assert.False(t, got[1].Active)
}

func TestGetHistoryEmptyEntityID(t *testing.T) {
	ms := []types.Measurement{{ID: "a", AssemblyID: "asm", PropertyID: "tensile", Date: day(1)}}
	assert.Empty(t, GetHistory(ms, "", "tensile", types.HistoryLimit{}))
}

func TestGetHistoryDoesNotReorderInput(t *testing.T) {
	ms := sampleMeasurements()
	GetHistory(ms, "mat", "tensile", types.HistoryLimit{})
	assert.Equal(t, "m5", ms[0].ID)
}

func TestSummarize(t *testing.T) {
	points := GetHistory(sampleMeasurements(), "mat", "tensile", types.HistoryLimit{})

	t.Run("population standard deviation", func(t *testing.T) {
		s := Summarize(points, nil)
		require.Equal(t, 4, s.Count)
		assert.Equal(t, 101.0, *s.Min)
		assert.Equal(t, 105.0, *s.Max)
		assert.InDelta(t, 102.75, *s.Mean, 1e-9)
		// deviations: -1.75, -0.75, 0.25, 2.25 -> squares sum 8.75, / 4
		assert.InDelta(t, 1.479019945774904, *s.StdDev, 1e-9)
	})

	t.Run("exclude list removes outliers", func(t *testing.T) {
		s := Summarize(points, []string{"m5", "unknown"})
		require.Equal(t, 3, s.Count)
		assert.InDelta(t, 102, *s.Mean, 1e-9)
		assert.InDelta(t, 0.816496580927726, *s.StdDev, 1e-9)
	})

	t.Run("empty series", func(t *testing.T) {
		s := Summarize(nil, nil)
		assert.Equal(t, Summary{}, s)
	})

	t.Run("single point has zero spread", func(t *testing.T) {
		s := Summarize([]types.HistoryPoint{{ID: "a", Value: 7, Active: true}}, nil)
		assert.Equal(t, 0.0, *s.StdDev)
	})
}
