// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compliance checks normalized entity values against requirement
// rules.
package compliance

import (
	"math"

	"github.com/pdiddy/material-engine/pkg/types"
)

const (
	// warnDeviation and failDeviation bound the relative deviation from a
	// rule's target.
	warnDeviation = 0.05
	failDeviation = 0.10
)

// Result is the outcome of one rule. Actual and Delta are nil when unknown.
type Result struct {
	Rule   types.RequirementRule  `json:"rule" yaml:"rule"`
	Status types.ComplianceStatus `json:"status" yaml:"status"`
	Actual *float64               `json:"actual" yaml:"actual"`
	Delta  *float64               `json:"delta" yaml:"delta"`
}

// Evaluate checks entity against rule. The actual value comes from the
// entity's properties, then its metrics. Status is unknown when there is
// no actual value. Min/max violations fail; afterwards a target deviation
// above 10% fails and above 5% warns, so a bound failure is never undone.
// Delta is the percentage difference from the baseline and is independent
// of Status.
func Evaluate(entity types.NormalizedEntity, rule types.RequirementRule) Result {
	res := Result{Rule: rule, Status: types.StatusUnknown}

	actual, ok := actualValue(entity, rule.PropertyID)
	if !ok {
		return res
	}
	res.Actual = &actual
	res.Status = types.StatusPass

	if rule.Min != nil && actual < *rule.Min {
		res.Status = types.StatusFail
	}
	if rule.Max != nil && actual > *rule.Max {
		res.Status = types.StatusFail
	}

	if rule.Target != nil && *rule.Target != 0 {
		dev := math.Abs(actual-*rule.Target) / math.Abs(*rule.Target)
		switch {
		case dev > failDeviation:
			res.Status = types.StatusFail
		case dev > warnDeviation && res.Status == types.StatusPass:
			res.Status = types.StatusWarn
		}
	}

	if base, ok := baseline(rule); ok && base != 0 {
		d := (actual - base) / base * 100
		res.Delta = &d
	}
	return res
}

func actualValue(e types.NormalizedEntity, id types.PropertyID) (float64, bool) {
	if pv, ok := e.Properties[id]; ok {
		return pv.Value, true
	}
	if mv := e.Metrics[types.MetricKey(id)]; mv != nil {
		return *mv, true
	}
	return 0, false
}

// baseline is the target when set, else the midpoint of min and max, else
// whichever bound is set.
func baseline(rule types.RequirementRule) (float64, bool) {
	switch {
	case rule.Target != nil:
		return *rule.Target, true
	case rule.Min != nil && rule.Max != nil:
		return (*rule.Min + *rule.Max) / 2, true
	case rule.Min != nil:
		return *rule.Min, true
	case rule.Max != nil:
		return *rule.Max, true
	}
	return 0, false
}

// ProfileResult is the evaluation of every rule of a profile.
type ProfileResult struct {
	ProfileID string                 `json:"profile_id" yaml:"profile_id"`
	EntityID  string                 `json:"entity_id" yaml:"entity_id"`
	Overall   types.ComplianceStatus `json:"overall" yaml:"overall"`
	Rules     []Result               `json:"rules" yaml:"rules"`
}

// EvaluateProfile evaluates every rule of profile in order. Overall is the
// worst rule status by fail > warn > unknown > pass; an empty profile passes.
func EvaluateProfile(entity types.NormalizedEntity, profile types.RequirementProfile) ProfileResult {
	out := ProfileResult{
		ProfileID: profile.ID,
		EntityID:  entity.ID,
		Overall:   types.StatusPass,
		Rules:     make([]Result, 0, len(profile.Rules)),
	}
	for _, rule := range profile.Rules {
		r := Evaluate(entity, rule)
		out.Rules = append(out.Rules, r)
		if severity(r.Status) > severity(out.Overall) {
			out.Overall = r.Status
		}
	}
	return out
}

func severity(s types.ComplianceStatus) int {
	switch s {
	case types.StatusFail:
		return 3
	case types.StatusWarn:
		return 2
	case types.StatusUnknown:
		return 1
	}
	return 0
}
