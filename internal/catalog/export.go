// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-engine/pkg/types"
)

// ExportFile is the document written by ExportYAML and ExportJSON.
type ExportFile struct {
	RunID       string                   `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time                `json:"generated_at" yaml:"generated_at"`
	Strategy    types.SourceStrategy     `json:"strategy" yaml:"strategy"`
	Entities    []types.NormalizedEntity `json:"entities" yaml:"entities"`
}

// ExportYAML writes doc to DatabaseDir/normalized.yaml and returns the path.
func (s *Store) ExportYAML(doc ExportFile) (string, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.databaseDir, "normalized.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

// ExportJSON writes doc to DatabaseDir/normalized.json and returns the path.
func (s *Store) ExportJSON(doc ExportFile) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.databaseDir, "normalized.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
