// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-engine/internal/dataset"
	"github.com/pdiddy/material-engine/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	dataDir := filepath.Join(tmpDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(types.CatalogConfig{
		DataDir:     dataDir,
		DatabaseDir: filepath.Join(tmpDir, "data", "index"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func writeDataset(t *testing.T, tmpDir, name string, ds types.Dataset) string {
	t.Helper()
	data, err := yaml.Marshal(&ds)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(tmpDir, "data", name+dataset.FileSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func touch(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
}

func ptr(v float64) *float64 { return &v }

func sampleDataset() types.Dataset {
	off := false
	return types.Dataset{
		Properties: []types.PropertyDefinition{
			{ID: "density", Name: "Density", Unit: "g/cm3", Category: types.CategoryPhysical},
			{ID: "tensile", Name: "Tensile Strength", Unit: "MPa", Category: types.CategoryMechanical},
		},
		Materials: []types.Material{
			{ID: "cf-ud", Name: "Carbon UD Prepreg", Properties: []types.ManualProperty{{Name: "Density", Value: "1,55"}}},
			{ID: "gf-wv", Name: "Glass Weave"},
		},
		Layups: []types.Layup{
			{ID: "qi-8", Name: "Quasi-iso 8 ply", TotalWeight: 1200, TotalThickness: 2.1,
				Layers: []types.Layer{{MaterialID: "cf-ud", Orientation: 45}}},
		},
		Assemblies: []types.Assembly{{ID: "panel", Name: "Side Panel", LayupIDs: []string{"qi-8"}}},
		Measurements: []types.Measurement{
			{ID: "m2", MaterialID: "cf-ud", PropertyID: "tensile", ResultValue: 2100,
				Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), LaboratoryID: "lab-a", TestMethod: "d3039"},
			{ID: "m1", MaterialID: "cf-ud", PropertyID: "tensile", ResultValue: 2000,
				Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Active: &off},
		},
		RequirementProfiles: []types.RequirementProfile{{
			ID: "aero", Name: "Aero secondary structure",
			Rules: []types.RequirementRule{{PropertyID: "tensile", Min: ptr(1800), Target: ptr(2000)}},
		}},
		TestMethods: []types.TestMethod{{
			ID: "d3039", Name: "Tensile", Standard: "ASTM D3039",
			Properties: []types.TestMethodPropertyConfig{{PropertyID: "tensile", StatsTypes: []types.StatsType{types.StatsMean, types.StatsDesign}}},
		}},
		TestMatrices: []types.TestMatrix{{
			ID: "mx1", Name: "Batch 1", TestMethodID: "d3039", MaterialID: "cf-ud",
			Specimens: []types.Specimen{{ID: "s1", Results: map[types.PropertyID]string{"tensile": "2050"}}},
		}},
	}
}

func ingest(t *testing.T, store *Store) (IngestSummary, string) {
	t.Helper()
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return summary, buf.String()
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"datasets", "properties", "entities", "measurements",
		"requirement_profiles", "test_methods", "test_matrices"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	_, tmpDir := testSetup(t)
	if _, err := os.Stat(filepath.Join(tmpDir, "data", "index", dbFile)); os.IsNotExist(err) {
		t.Errorf("database file not created")
	}
}

// --- ingest tests ---

func TestIngestRoundTrip(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeDataset(t, tmpDir, "core", sampleDataset())

	summary, out := ingest(t, store)
	if summary.Indexed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v; output: %s", summary, out)
	}
	if !strings.Contains(out, "indexing core (11 records)") {
		t.Errorf("output missing indexing line: %s", out)
	}

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Properties) != 2 || snap.Properties[0].ID != "density" || snap.Properties[0].Unit != "g/cm3" {
		t.Errorf("Properties = %+v", snap.Properties)
	}
	if len(snap.Materials) != 2 || snap.Materials[0].Properties[0].Value != "1,55" {
		t.Errorf("Materials = %+v", snap.Materials)
	}
	if len(snap.Layups) != 1 || snap.Layups[0].TotalThickness != 2.1 || len(snap.Layups[0].Layers) != 1 {
		t.Errorf("Layups = %+v", snap.Layups)
	}
	if len(snap.Assemblies) != 1 || snap.Assemblies[0].LayupIDs[0] != "qi-8" {
		t.Errorf("Assemblies = %+v", snap.Assemblies)
	}

	if len(snap.Measurements) != 2 {
		t.Fatalf("got %d measurements, want 2", len(snap.Measurements))
	}
	first, second := snap.Measurements[0], snap.Measurements[1]
	if first.ID != "m1" || second.ID != "m2" {
		t.Errorf("measurements not ordered by date: %s, %s", first.ID, second.ID)
	}
	if first.IsActive() {
		t.Error("m1 should be inactive")
	}
	if second.Active != nil {
		t.Error("m2 active flag should stay unset")
	}
	if !second.Date.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) || second.LaboratoryID != "lab-a" || second.TestMethod != "d3039" {
		t.Errorf("m2 = %+v", second)
	}

	if len(snap.RequirementProfiles) != 1 || *snap.RequirementProfiles[0].Rules[0].Target != 2000 {
		t.Errorf("RequirementProfiles = %+v", snap.RequirementProfiles)
	}
	if len(snap.TestMethods) != 1 || snap.TestMethods[0].Properties[0].StatsTypes[1] != types.StatsDesign {
		t.Errorf("TestMethods = %+v", snap.TestMethods)
	}
	if len(snap.TestMatrices) != 1 || snap.TestMatrices[0].Specimens[0].Results["tensile"] != "2050" {
		t.Errorf("TestMatrices = %+v", snap.TestMatrices)
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeDataset(t, tmpDir, "core", sampleDataset())
	ingest(t, store)

	summary, out := ingest(t, store)
	if summary.Skipped != 1 || summary.Indexed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(out, "skipped core") {
		t.Errorf("output should contain 'skipped core': %s", out)
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeDataset(t, tmpDir, "core", sampleDataset())
	ingest(t, store)

	ds := sampleDataset()
	ds.Materials = ds.Materials[:1]
	ds.Measurements = nil
	path := writeDataset(t, tmpDir, "core", ds)
	touch(t, path)

	summary, _ := ingest(t, store)
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Materials) != 1 {
		t.Errorf("got %d materials after update, want 1", len(snap.Materials))
	}
	if len(snap.Measurements) != 0 {
		t.Errorf("got %d measurements after update, want 0", len(snap.Measurements))
	}
}

func TestIngestRemovesDeletedDataset(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeDataset(t, tmpDir, "core", sampleDataset())
	extra := writeDataset(t, tmpDir, "extra", types.Dataset{
		Materials: []types.Material{{ID: "al-7075", Name: "Aluminium 7075"}},
	})
	ingest(t, store)

	if err := os.Remove(extra); err != nil {
		t.Fatal(err)
	}
	summary, out := ingest(t, store)
	if summary.Removed != 1 || !strings.Contains(out, "removed extra") {
		t.Errorf("summary = %+v; output: %s", summary, out)
	}

	if _, err := store.Entity(context.Background(), types.EntityRef{Type: types.EntityMaterial, ID: "al-7075"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIngestReportsParseFailure(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := filepath.Join(tmpDir, "data", "broken"+dataset.FileSuffix)
	if err := os.WriteFile(path, []byte("materials: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, out := ingest(t, store)
	if summary.Failed != 1 || summary.Total() != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(out, "failed  broken") {
		t.Errorf("output should report failure: %s", out)
	}
}

func TestIngestReportsDanglingReferences(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeDataset(t, tmpDir, "core", types.Dataset{
		Measurements: []types.Measurement{{ID: "x1", MaterialID: "m", PropertyID: "cte"}},
	})

	summary, out := ingest(t, store)
	if summary.Indexed != 1 {
		t.Errorf("dangling references must not fail ingest: %+v", summary)
	}
	if !strings.Contains(out, "warning core: measurement x1 references unknown property cte") {
		t.Errorf("output missing warning: %s", out)
	}
}

func TestIngestMissingDataDir(t *testing.T) {
	store, err := NewStore(types.CatalogConfig{
		DataDir:     filepath.Join(t.TempDir(), "nope"),
		DatabaseDir: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.Ingest(context.Background(), &strings.Builder{}); err == nil {
		t.Error("expected error for missing data directory")
	}
}

// --- lookup tests ---

func TestFindEntities(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeDataset(t, tmpDir, "core", sampleDataset())
	ingest(t, store)

	tests := []struct {
		name  string
		query string
		kind  types.EntityType
		want  []string
	}{
		{"all", "", "", []string{"panel", "qi-8", "cf-ud", "gf-wv"}},
		{"case insensitive", "CARBON", "", []string{"cf-ud"}},
		{"by type", "", types.EntityLayup, []string{"qi-8"}},
		{"no match", "titanium", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindEntities(context.Background(), tt.query, tt.kind)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
				if e.Dataset != "core" {
					t.Errorf("Dataset = %q, want core", e.Dataset)
				}
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestEntity(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeDataset(t, tmpDir, "core", sampleDataset())
	ingest(t, store)

	e, err := store.Entity(context.Background(), types.EntityRef{Type: types.EntityLayup, ID: "qi-8"})
	if err != nil {
		t.Fatal(err)
	}
	layup, ok := e.(types.Layup)
	if !ok {
		t.Fatalf("got %T, want types.Layup", e)
	}
	if layup.TotalWeight != 1200 {
		t.Errorf("TotalWeight = %v, want 1200", layup.TotalWeight)
	}

	_, err = store.Entity(context.Background(), types.EntityRef{Type: types.EntityMaterial, ID: "qi-8"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- export tests ---

func TestExport(t *testing.T) {
	store, tmpDir := testSetup(t)
	doc := ExportFile{
		RunID:    "run-1",
		Strategy: types.SourceAuto,
		Entities: []types.NormalizedEntity{{
			ID: "qi-8", Type: types.EntityLayup,
			Metrics:    map[types.MetricKey]*float64{types.MetricTotalWeight: nil, types.MetricTotalThickness: ptr(2.1)},
			Properties: map[types.PropertyID]types.PropertyValue{"density": {Value: 1.55, Unit: "g/cm3", Source: types.ValueManual}},
		}},
	}

	yamlPath, err := store.ExportYAML(doc)
	if err != nil {
		t.Fatal(err)
	}
	if yamlPath != filepath.Join(tmpDir, "data", "index", "normalized.yaml") {
		t.Errorf("path = %s", yamlPath)
	}
	var fromYAML ExportFile
	data, _ := os.ReadFile(yamlPath)
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if fromYAML.RunID != "run-1" || fromYAML.Entities[0].Metrics[types.MetricTotalWeight] != nil {
		t.Errorf("yaml export = %+v", fromYAML)
	}

	jsonPath, err := store.ExportJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON ExportFile
	data, _ = os.ReadFile(jsonPath)
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if got := fromJSON.Entities[0].Properties["density"]; got.Value != 1.55 || got.Source != types.ValueManual {
		t.Errorf("json export density = %+v", got)
	}
}
