// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis runs the normalization, similarity, history, compliance
// and design-value engines against one catalog Snapshot.
//
// A Service never mutates its Snapshot; every call builds fresh normalized
// views so results always reflect the snapshot's current contents. Each call
// is logged under its own run id.
package analysis

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pdiddy/material-engine/internal/compliance"
	"github.com/pdiddy/material-engine/internal/designvalue"
	"github.com/pdiddy/material-engine/internal/history"
	"github.com/pdiddy/material-engine/internal/normalize"
	"github.com/pdiddy/material-engine/internal/similarity"
	"github.com/pdiddy/material-engine/pkg/types"
)

var (
	ErrUnknownEntity  = errors.New("unknown entity")
	ErrUnknownProfile = errors.New("unknown requirement profile")
	ErrUnknownMatrix  = errors.New("unknown test matrix")
)

// Service answers analysis requests over a Snapshot.
type Service struct {
	snap   *types.Snapshot
	cfg    types.AnalysisConfig
	logger *slog.Logger
}

// NewService returns a Service over snap. A nil logger discards log output.
func NewService(snap *types.Snapshot, cfg types.AnalysisConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if snap == nil {
		snap = &types.Snapshot{}
	}
	return &Service{snap: snap, cfg: cfg, logger: logger}
}

// run returns a logger tagged with a fresh run id and the operation name.
func (s *Service) run(op string) *slog.Logger {
	log, _ := s.runWithID(op)
	return log
}

// runWithID is run for operations whose results carry the run id.
func (s *Service) runWithID(op string) (*slog.Logger, string) {
	id := uuid.NewString()
	return s.logger.With("run_id", id, "op", op), id
}

// strategy resolves the normalization strategy: an explicit valid choice
// wins, then the configured default, then SourceAuto.
func (s *Service) strategy(override types.SourceStrategy) types.SourceStrategy {
	if override.Valid() {
		return override
	}
	if s.cfg.SourceStrategy.Valid() {
		return s.cfg.SourceStrategy
	}
	return types.SourceAuto
}

func (s *Service) normalize(e types.Entity, strategy types.SourceStrategy) types.NormalizedEntity {
	return normalize.Normalize(e, s.snap.Measurements, s.snap.Properties, strategy)
}

func (s *Service) entity(ref types.EntityRef) (types.Entity, error) {
	e, ok := s.snap.Entity(ref)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", ref.Type, ref.ID, ErrUnknownEntity)
	}
	return e, nil
}

// Normalize returns the normalized view of one entity. An empty or
// unknown strategy falls back to the configured default.
func (s *Service) Normalize(ref types.EntityRef, strategy types.SourceStrategy) (types.NormalizedEntity, error) {
	log := s.run("normalize")
	e, err := s.entity(ref)
	if err != nil {
		log.Warn("entity not found", "type", ref.Type, "id", ref.ID)
		return types.NormalizedEntity{}, err
	}
	strategy = s.strategy(strategy)
	log.Debug("normalizing", "type", ref.Type, "id", ref.ID, "strategy", strategy)
	return s.normalize(e, strategy), nil
}

// NormalizedBatch is the result of one NormalizeAll run. RunID matches the
// run_id of the run's log records.
type NormalizedBatch struct {
	RunID    string
	Strategy types.SourceStrategy
	Entities []types.NormalizedEntity
}

// NormalizeAll returns the normalized views of every entity of type t in
// catalog order.
func (s *Service) NormalizeAll(t types.EntityType, strategy types.SourceStrategy) (NormalizedBatch, error) {
	if !t.Valid() {
		return NormalizedBatch{}, fmt.Errorf("entity type %q: %w", t, ErrUnknownEntity)
	}
	log, runID := s.runWithID("normalize_all")
	strategy = s.strategy(strategy)

	entities := s.snap.Entities(t)
	out := make([]types.NormalizedEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, s.normalize(e, strategy))
	}
	log.Info("normalized entities", "type", t, "count", len(out), "strategy", strategy)
	return NormalizedBatch{RunID: runID, Strategy: strategy, Entities: out}, nil
}

// Substitutes searches the entities of the same type as ref for
// replacements that satisfy every constraint. Results are ranked by
// descending score and truncated to topK; topK <= 0 uses the configured
// default, and a default <= 0 returns every survivor.
func (s *Service) Substitutes(ref types.EntityRef, constraints []types.SubstitutionConstraint, topK int) ([]types.SimilarityResult, error) {
	log := s.run("substitutes")
	e, err := s.entity(ref)
	if err != nil {
		log.Warn("entity not found", "type", ref.Type, "id", ref.ID)
		return nil, err
	}
	strategy := s.strategy("")
	target := s.normalize(e, strategy)

	pool := s.snap.Entities(ref.Type)
	candidates := make([]types.NormalizedEntity, 0, len(pool))
	for _, c := range pool {
		candidates = append(candidates, s.normalize(c, strategy))
	}

	results := similarity.FindSimilar(target, candidates, constraints)
	similarity.Rank(results)

	if topK <= 0 {
		topK = s.cfg.TopK
	}
	results = similarity.Top(results, topK)

	log.Info("substitution search",
		"type", ref.Type, "id", ref.ID,
		"pool", len(candidates), "constraints", len(constraints), "results", len(results))
	return results, nil
}

// HistoryReport is a property time series together with its summary.
type HistoryReport struct {
	EntityID   string               `json:"entity_id" yaml:"entity_id"`
	PropertyID types.PropertyID     `json:"property_id" yaml:"property_id"`
	Points     []types.HistoryPoint `json:"points" yaml:"points"`
	Excluded   []string             `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	Summary    history.Summary      `json:"summary" yaml:"summary"`
}

// History returns the measurement series of one property of an entity.
// Points listed in exclude stay in the series but are left out of the
// summary.
func (s *Service) History(entityID string, propertyID types.PropertyID, limit types.HistoryLimit, exclude []string) HistoryReport {
	log := s.run("history")
	points := history.GetHistory(s.snap.Measurements, entityID, propertyID, limit)
	report := HistoryReport{
		EntityID:   entityID,
		PropertyID: propertyID,
		Points:     points,
		Excluded:   exclude,
		Summary:    history.Summarize(points, exclude),
	}
	log.Info("history",
		"entity", entityID, "property", propertyID, "limit", limit.Type,
		"points", len(points), "summarized", report.Summary.Count)
	return report
}

// Compliance evaluates an entity against a requirement profile.
func (s *Service) Compliance(ref types.EntityRef, profileID string) (compliance.ProfileResult, error) {
	log := s.run("compliance")
	e, err := s.entity(ref)
	if err != nil {
		log.Warn("entity not found", "type", ref.Type, "id", ref.ID)
		return compliance.ProfileResult{}, err
	}
	profile, ok := s.snap.Profile(profileID)
	if !ok {
		log.Warn("profile not found", "profile", profileID)
		return compliance.ProfileResult{}, fmt.Errorf("profile %q: %w", profileID, ErrUnknownProfile)
	}

	result := compliance.EvaluateProfile(s.normalize(e, s.strategy("")), profile)
	log.Info("compliance",
		"type", ref.Type, "id", ref.ID, "profile", profileID,
		"rules", len(result.Rules), "overall", result.Overall)
	return result, nil
}

// DesignReport holds the per-property statistics of one test matrix.
type DesignReport struct {
	MatrixID     string                      `json:"matrix_id" yaml:"matrix_id"`
	TestMethodID string                      `json:"test_method_id" yaml:"test_method_id"`
	MaterialID   string                      `json:"material_id,omitempty" yaml:"material_id,omitempty"`
	Specimens    int                         `json:"specimens" yaml:"specimens"`
	Properties   []designvalue.PropertyStats `json:"properties" yaml:"properties"`
}

// DesignValues computes statistics and A/B-basis values for a test matrix
// using its test method's property configuration. A matrix whose test
// method is not in the catalog is reported with mean-only statistics.
func (s *Service) DesignValues(matrixID string) (DesignReport, error) {
	log := s.run("design_values")
	matrix, ok := s.snap.Matrix(matrixID)
	if !ok {
		log.Warn("matrix not found", "matrix", matrixID)
		return DesignReport{}, fmt.Errorf("matrix %q: %w", matrixID, ErrUnknownMatrix)
	}

	method, ok := s.snap.Method(matrix.TestMethodID)
	if !ok {
		log.Warn("test method not found, reporting means only",
			"matrix", matrixID, "test_method", matrix.TestMethodID)
	}

	report := DesignReport{
		MatrixID:     matrix.ID,
		TestMethodID: matrix.TestMethodID,
		MaterialID:   matrix.MaterialID,
		Specimens:    len(matrix.Specimens),
		Properties:   designvalue.ComputeMatrix(matrix, method),
	}
	log.Info("design values",
		"matrix", matrixID, "specimens", report.Specimens, "properties", len(report.Properties))
	return report, nil
}
