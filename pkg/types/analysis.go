// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceStrategy selects where the normalizer takes property values from.
type SourceStrategy string

const (
	SourceAuto         SourceStrategy = "auto"
	SourceProperties   SourceStrategy = "properties"
	SourceMeasurements SourceStrategy = "measurements"
)

// Valid reports whether s is a known strategy.
func (s SourceStrategy) Valid() bool {
	switch s {
	case SourceAuto, SourceProperties, SourceMeasurements:
		return true
	}
	return false
}

// ValueSource records which data source produced a normalized value.
// ValueNone means the value is the zero placeholder for missing data.
type ValueSource string

const (
	ValueMeasured ValueSource = "measured"
	ValueManual   ValueSource = "manual"
	ValueNone     ValueSource = "none"
)

// PropertyValue is one normalized property of an entity.
type PropertyValue struct {
	Value  float64     `json:"value" yaml:"value"`
	Unit   string      `json:"unit" yaml:"unit"`
	Source ValueSource `json:"source" yaml:"source"`
}

// NormalizedEntity is the flat numeric view of an entity used by the
// comparison engines. It is rebuilt on every analysis and never stored.
type NormalizedEntity struct {
	ID         string                       `json:"id" yaml:"id"`
	Name       string                       `json:"name" yaml:"name"`
	Type       EntityType                   `json:"type" yaml:"type"`
	Metrics    map[MetricKey]*float64       `json:"metrics" yaml:"metrics"`
	Properties map[PropertyID]PropertyValue `json:"properties" yaml:"properties"`
}

// SubstitutionConstraint is a hard bound on a candidate's property or
// metric value. At least one of Min and Max should be set.
type SubstitutionConstraint struct {
	PropertyID PropertyID `json:"property_id" yaml:"property_id"`
	Min        *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *float64   `json:"max,omitempty" yaml:"max,omitempty"`
}

// SimilarityResult is one surviving substitution candidate.
type SimilarityResult struct {
	Entity       NormalizedEntity `json:"entity" yaml:"entity"`
	Score        float64          `json:"score" yaml:"score"`
	MatchDetails []string         `json:"match_details" yaml:"match_details"`
}

// HistoryPoint is a view over one Measurement in a time series.
type HistoryPoint struct {
	ID     string    `json:"id" yaml:"id"`
	Date   time.Time `json:"date" yaml:"date"`
	Value  float64   `json:"value" yaml:"value"`
	LabID  string    `json:"lab_id,omitempty" yaml:"lab_id,omitempty"`
	Active bool      `json:"active" yaml:"active"`
}

// HistoryLimitType selects how a history series is truncated.
type HistoryLimitType string

const (
	LimitCount HistoryLimitType = "count"
	LimitDate  HistoryLimitType = "date"
)

// HistoryLimit bounds a history query. Count is used with LimitCount;
// Start and End (inclusive, zero means unbounded) with LimitDate.
type HistoryLimit struct {
	Type  HistoryLimitType `json:"type" yaml:"type"`
	Count int              `json:"count,omitempty" yaml:"count,omitempty"`
	Start time.Time        `json:"start,omitempty" yaml:"start,omitempty"`
	End   time.Time        `json:"end,omitempty" yaml:"end,omitempty"`
}
