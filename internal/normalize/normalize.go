// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts an entity's manual properties and measurements
// into a flat numeric NormalizedEntity that can be compared across entities.
//
// Missing data is encoded as the value 0 with Source ValueNone. The numeric
// value alone cannot distinguish "no data" from a measured zero.
package normalize

import (
	"strings"

	"github.com/pdiddy/material-engine/internal/numeric"
	"github.com/pdiddy/material-engine/pkg/types"
)

// Normalize builds the normalized view of entity. Every definition in
// catalog yields exactly one entry in Properties. measurements may contain
// records of other entities; only active measurements owned by entity are
// used. An unknown strategy behaves like SourceAuto.
func Normalize(entity types.Entity, measurements []types.Measurement, catalog []types.PropertyDefinition, strategy types.SourceStrategy) types.NormalizedEntity {
	kind := entity.EntityType()
	out := types.NormalizedEntity{
		ID:         entity.EntityID(),
		Name:       entity.EntityName(),
		Type:       kind,
		Metrics:    map[types.MetricKey]*float64{},
		Properties: make(map[types.PropertyID]types.PropertyValue, len(catalog)),
	}

	manual := manualIndex(entity.ManualProperties())
	owned := ownedMeasurements(entity, measurements)

	for _, def := range catalog {
		value, source := resolve(def, owned, manual, strategy)
		out.Properties[def.ID] = types.PropertyValue{
			Value:  value,
			Unit:   def.Unit,
			Source: source,
		}
	}

	if layup, ok := entity.(types.Layup); ok {
		// total_weight is published as null even though the layup carries
		// a weight; the key is present so consumers see an explicit null.
		out.Metrics[types.MetricTotalWeight] = nil
		out.Metrics[types.MetricTotalThickness] = numeric.Ptr(layup.TotalThickness)
	}

	return out
}

func resolve(def types.PropertyDefinition, owned map[types.PropertyID][]float64, manual map[string]string, strategy types.SourceStrategy) (float64, types.ValueSource) {
	switch strategy {
	case types.SourceMeasurements:
		if mean, ok := meanOf(owned[def.ID]); ok {
			return mean, types.ValueMeasured
		}
		return 0, types.ValueNone
	case types.SourceProperties:
		if v, ok := manualValue(def, manual); ok {
			return v, types.ValueManual
		}
		return 0, types.ValueNone
	default:
		if mean, ok := meanOf(owned[def.ID]); ok {
			return mean, types.ValueMeasured
		}
		if v, ok := manualValue(def, manual); ok {
			return v, types.ValueManual
		}
		return 0, types.ValueNone
	}
}

// ownedMeasurements groups the finite result values of active measurements
// owned by entity by property id, preserving input order.
func ownedMeasurements(entity types.Entity, measurements []types.Measurement) map[types.PropertyID][]float64 {
	owned := make(map[types.PropertyID][]float64)
	for _, m := range measurements {
		if !m.IsActive() || !m.OwnedBy(entity.EntityType(), entity.EntityID()) {
			continue
		}
		if !numeric.IsFinite(m.ResultValue) {
			continue
		}
		owned[m.PropertyID] = append(owned[m.PropertyID], m.ResultValue)
	}
	return owned
}

func meanOf(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// manualIndex maps normalized property names to raw values. The first
// property with a given name wins.
func manualIndex(props []types.ManualProperty) map[string]string {
	idx := make(map[string]string, len(props))
	for _, p := range props {
		key := nameKey(p.Name)
		if _, seen := idx[key]; !seen {
			idx[key] = p.Value
		}
	}
	return idx
}

func manualValue(def types.PropertyDefinition, manual map[string]string) (float64, bool) {
	raw, ok := manual[nameKey(def.Name)]
	if !ok {
		return 0, false
	}
	return numeric.ParseEngineeringNumber(raw)
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
