// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Dataset is the on-disk bundle format. Any collection may be empty.
type Dataset struct {
	Properties          []PropertyDefinition `json:"properties,omitempty" yaml:"properties,omitempty"`
	Materials           []Material           `json:"materials,omitempty" yaml:"materials,omitempty"`
	Layups              []Layup              `json:"layups,omitempty" yaml:"layups,omitempty"`
	Assemblies          []Assembly           `json:"assemblies,omitempty" yaml:"assemblies,omitempty"`
	Measurements        []Measurement        `json:"measurements,omitempty" yaml:"measurements,omitempty"`
	RequirementProfiles []RequirementProfile `json:"requirement_profiles,omitempty" yaml:"requirement_profiles,omitempty"`
	TestMethods         []TestMethod         `json:"test_methods,omitempty" yaml:"test_methods,omitempty"`
	TestMatrices        []TestMatrix         `json:"test_matrices,omitempty" yaml:"test_matrices,omitempty"`
}

// Snapshot is a read-only view of every collection at one point in time.
// The analysis engines take their inputs from a Snapshot and never modify it.
type Snapshot Dataset

// EntityRef addresses one entity.
type EntityRef struct {
	Type EntityType `json:"type" yaml:"type"`
	ID   string     `json:"id" yaml:"id"`
}

// Entities returns every entity of type t in collection order.
func (s *Snapshot) Entities(t EntityType) []Entity {
	var out []Entity
	switch t {
	case EntityMaterial:
		for _, m := range s.Materials {
			out = append(out, m)
		}
	case EntityLayup:
		for _, l := range s.Layups {
			out = append(out, l)
		}
	case EntityAssembly:
		for _, a := range s.Assemblies {
			out = append(out, a)
		}
	}
	return out
}

// Entity looks up one entity by reference.
func (s *Snapshot) Entity(ref EntityRef) (Entity, bool) {
	for _, e := range s.Entities(ref.Type) {
		if e.EntityID() == ref.ID {
			return e, true
		}
	}
	return nil, false
}

// Profile looks up a requirement profile by id.
func (s *Snapshot) Profile(id string) (RequirementProfile, bool) {
	for _, p := range s.RequirementProfiles {
		if p.ID == id {
			return p, true
		}
	}
	return RequirementProfile{}, false
}

// Matrix looks up a test matrix by id.
func (s *Snapshot) Matrix(id string) (TestMatrix, bool) {
	for _, m := range s.TestMatrices {
		if m.ID == id {
			return m, true
		}
	}
	return TestMatrix{}, false
}

// Method looks up a test method by id.
func (s *Snapshot) Method(id string) (TestMethod, bool) {
	for _, m := range s.TestMethods {
		if m.ID == id {
			return m, true
		}
	}
	return TestMethod{}, false
}
