// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RequirementRule defines acceptance criteria for one property.
type RequirementRule struct {
	PropertyID PropertyID `json:"property_id" yaml:"property_id"`
	Unit       string     `json:"unit,omitempty" yaml:"unit,omitempty"`
	Min        *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Target     *float64   `json:"target,omitempty" yaml:"target,omitempty"`
	Method     string     `json:"method,omitempty" yaml:"method,omitempty"`
}

// RequirementProfile is a named set of requirement rules.
type RequirementProfile struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []RequirementRule `json:"rules" yaml:"rules"`
}

// ComplianceStatus is the outcome of checking one value against one rule.
type ComplianceStatus string

const (
	StatusPass    ComplianceStatus = "pass"
	StatusWarn    ComplianceStatus = "warn"
	StatusFail    ComplianceStatus = "fail"
	StatusUnknown ComplianceStatus = "unknown"
)

// StatsType names a statistic a test method produces for a property.
type StatsType string

const (
	StatsMean   StatsType = "mean"
	StatsRange  StatsType = "range"
	StatsDesign StatsType = "design"
)

// TestMethodPropertyConfig declares which statistics a test method's
// matrix produces for a property. StatsDesign gates A/B-basis values.
type TestMethodPropertyConfig struct {
	PropertyID PropertyID  `json:"property_id" yaml:"property_id"`
	StatsTypes []StatsType `json:"stats_types" yaml:"stats_types"`
}

// TestMethod is a qualification test procedure (e.g. a standard number).
type TestMethod struct {
	ID         string                     `json:"id" yaml:"id"`
	Name       string                     `json:"name" yaml:"name"`
	Standard   string                     `json:"standard,omitempty" yaml:"standard,omitempty"`
	Properties []TestMethodPropertyConfig `json:"properties" yaml:"properties"`
}

// Specimen is one row of a test matrix. Results hold raw cell text as
// entered; cells may be empty or unparseable.
type Specimen struct {
	ID      string                `json:"id" yaml:"id"`
	Results map[PropertyID]string `json:"results" yaml:"results"`
}

// TestMatrix is a specimen-by-property result table for one test campaign.
type TestMatrix struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	TestMethodID string     `json:"test_method_id" yaml:"test_method_id"`
	MaterialID   string     `json:"material_id,omitempty" yaml:"material_id,omitempty"`
	Specimens    []Specimen `json:"specimens" yaml:"specimens"`
}

// Column returns the raw cells of property p in specimen order. Specimens
// without a cell for p contribute nothing.
func (m TestMatrix) Column(p PropertyID) []string {
	var col []string
	for _, s := range m.Specimens {
		if v, ok := s.Results[p]; ok {
			col = append(col, v)
		}
	}
	return col
}
