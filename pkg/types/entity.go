// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PropertyID identifies a PropertyDefinition. It is a distinct type so that
// property keys cannot be mixed up with MetricKey values.
type PropertyID string

// MetricKey identifies an entity-level scalar such as a layup's total thickness.
type MetricKey string

const (
	MetricTotalWeight    MetricKey = "total_weight"
	MetricTotalThickness MetricKey = "total_thickness"
)

// PropertyCategory groups property definitions (mechanical, thermal, ...).
type PropertyCategory string

const (
	CategoryMechanical PropertyCategory = "mechanical"
	CategoryThermal    PropertyCategory = "thermal"
	CategoryPhysical   PropertyCategory = "physical"
	CategoryChemical   PropertyCategory = "chemical"
)

// PropertyDefinition is one entry of the property catalog.
type PropertyDefinition struct {
	ID       PropertyID       `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Unit     string           `json:"unit" yaml:"unit"`
	Category PropertyCategory `json:"category" yaml:"category"`
}

// EntityType tags the variant of an Entity.
type EntityType string

const (
	EntityMaterial EntityType = "material"
	EntityLayup    EntityType = "layup"
	EntityAssembly EntityType = "assembly"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityMaterial, EntityLayup, EntityAssembly:
		return true
	}
	return false
}

// ManualProperty is a property value typed in by hand on an entity record.
// Value is kept as entered; it may use a comma decimal separator.
type ManualProperty struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Unit  string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Entity is a material, layup, or assembly record. The set of
// implementations is closed: Material, Layup and Assembly.
type Entity interface {
	EntityID() string
	EntityName() string
	EntityType() EntityType
	ManualProperties() []ManualProperty
	sealed()
}

// Material is a single raw material record.
type Material struct {
	ID           string           `json:"id" yaml:"id"`
	Name         string           `json:"name" yaml:"name"`
	Manufacturer string           `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Properties   []ManualProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
}

func (m Material) EntityID() string                   { return m.ID }
func (m Material) EntityName() string                 { return m.Name }
func (m Material) EntityType() EntityType             { return EntityMaterial }
func (m Material) ManualProperties() []ManualProperty { return m.Properties }
func (Material) sealed()                              {}

// Layer is one ply of a layup.
type Layer struct {
	MaterialID  string  `json:"material_id" yaml:"material_id"`
	Orientation float64 `json:"orientation" yaml:"orientation"`
	Thickness   float64 `json:"thickness,omitempty" yaml:"thickness,omitempty"`
}

// Layup is a stack of material layers with its own totals.
type Layup struct {
	ID             string           `json:"id" yaml:"id"`
	Name           string           `json:"name" yaml:"name"`
	TotalWeight    float64          `json:"total_weight" yaml:"total_weight"`
	TotalThickness float64          `json:"total_thickness" yaml:"total_thickness"`
	Layers         []Layer          `json:"layers,omitempty" yaml:"layers,omitempty"`
	Properties     []ManualProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
}

func (l Layup) EntityID() string                   { return l.ID }
func (l Layup) EntityName() string                 { return l.Name }
func (l Layup) EntityType() EntityType             { return EntityLayup }
func (l Layup) ManualProperties() []ManualProperty { return l.Properties }
func (Layup) sealed()                              {}

// Assembly is a built-up component made of layups and materials.
type Assembly struct {
	ID         string           `json:"id" yaml:"id"`
	Name       string           `json:"name" yaml:"name"`
	LayupIDs   []string         `json:"layup_ids,omitempty" yaml:"layup_ids,omitempty"`
	Properties []ManualProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
}

func (a Assembly) EntityID() string                   { return a.ID }
func (a Assembly) EntityName() string                 { return a.Name }
func (a Assembly) EntityType() EntityType             { return EntityAssembly }
func (a Assembly) ManualProperties() []ManualProperty { return a.Properties }
func (Assembly) sealed()                              {}

// Measurement is one test result owned by exactly one entity. Exactly one of
// MaterialID, LayupID and AssemblyID is set.
type Measurement struct {
	ID           string     `json:"id" yaml:"id"`
	MaterialID   string     `json:"material_id,omitempty" yaml:"material_id,omitempty"`
	LayupID      string     `json:"layup_id,omitempty" yaml:"layup_id,omitempty"`
	AssemblyID   string     `json:"assembly_id,omitempty" yaml:"assembly_id,omitempty"`
	PropertyID   PropertyID `json:"property_id" yaml:"property_id"`
	ResultValue  float64    `json:"result_value" yaml:"result_value"`
	Date         time.Time  `json:"date" yaml:"date"`
	LaboratoryID string     `json:"laboratory_id,omitempty" yaml:"laboratory_id,omitempty"`
	TestMethod   string     `json:"test_method,omitempty" yaml:"test_method,omitempty"`

	// Active is nil when the record never set the flag; nil counts as active.
	Active *bool `json:"is_active,omitempty" yaml:"is_active,omitempty"`
}

// IsActive reports whether the measurement takes part in aggregation.
// Only an explicit false excludes it.
func (m Measurement) IsActive() bool {
	return m.Active == nil || *m.Active
}

// OwnedBy reports whether the measurement belongs to the entity of type t
// with the given id.
func (m Measurement) OwnedBy(t EntityType, id string) bool {
	switch t {
	case EntityMaterial:
		return m.MaterialID == id
	case EntityLayup:
		return m.LayupID == id
	case EntityAssembly:
		return m.AssemblyID == id
	}
	return false
}

// OwnerCount returns how many owner fields are set. A well-formed
// measurement has exactly one.
func (m Measurement) OwnerCount() int {
	n := 0
	for _, id := range []string{m.MaterialID, m.LayupID, m.AssemblyID} {
		if id != "" {
			n++
		}
	}
	return n
}
