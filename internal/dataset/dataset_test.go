// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/material-engine/pkg/types"
)

const bundle = `properties:
  - id: density
    name: Density
    unit: g/cm3
    category: physical
materials:
  - id: cf-ud
    name: Carbon UD
    properties:
      - name: Density
        value: "1,55"
layups:
  - id: qi-8
    name: Quasi-iso 8 ply
    total_weight: 1200
    total_thickness: 2.1
measurements:
  - id: m1
    material_id: cf-ud
    property_id: density
    result_value: 1.56
    date: 2025-03-01T00:00:00Z
    is_active: false
test_matrices:
  - id: mx1
    test_method_id: d792
    specimens:
      - id: s1
        results:
          density: "1.57"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	ds, err := Load(writeFile(t, dir, "core"+FileSuffix, bundle))
	require.NoError(t, err)

	require.Len(t, ds.Materials, 1)
	assert.Equal(t, "1,55", ds.Materials[0].Properties[0].Value)
	require.Len(t, ds.Layups, 1)
	assert.Equal(t, 2.1, ds.Layups[0].TotalThickness)
	require.Len(t, ds.Measurements, 1)
	assert.False(t, ds.Measurements[0].IsActive())
	assert.Equal(t, 2025, ds.Measurements[0].Date.Year())
	require.Len(t, ds.TestMatrices, 1)
	assert.Equal(t, "1.57", ds.TestMatrices[0].Specimens[0].Results["density"])
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing"+FileSuffix))
	assert.ErrorContains(t, err, "reading dataset")

	_, err = Load(writeFile(t, dir, "bad"+FileSuffix, "materials: [\n"))
	assert.ErrorContains(t, err, "parsing dataset bad"+FileSuffix)
}

func TestFilesAndName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b"+FileSuffix, "")
	writeFile(t, dir, "a"+FileSuffix, "")
	writeFile(t, dir, "notes.yaml", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c"+FileSuffix), 0o755))

	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a", Name(files[0]))
	assert.Equal(t, "b", Name(files[1]))

	_, err = Files(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ds := &types.Dataset{
		Properties: []types.PropertyDefinition{{ID: "density"}},
		Measurements: []types.Measurement{
			{ID: "ok", MaterialID: "m", PropertyID: "density"},
			{ID: "orphan", PropertyID: "density"},
			{ID: "double", MaterialID: "m", LayupID: "l", PropertyID: "density"},
			{ID: "bad-prop", MaterialID: "m", PropertyID: "cte"},
			{ID: "bad-prop", MaterialID: "m", PropertyID: "cte"},
		},
		RequirementProfiles: []types.RequirementProfile{{
			ID: "p1",
			Rules: []types.RequirementRule{
				{PropertyID: "density"},
				{PropertyID: "total_thickness"},
				{PropertyID: "tensile"},
			},
		}},
		TestMethods: []types.TestMethod{{
			ID:         "d3039",
			Properties: []types.TestMethodPropertyConfig{{PropertyID: "modulus"}},
		}},
		TestMatrices: []types.TestMatrix{
			{ID: "mx1", TestMethodID: "d3039"},
			{ID: "mx2", TestMethodID: "d792"},
			{ID: "mx3", TestMethodID: "iso527"},
		},
	}
	known := &types.Snapshot{
		Properties:  []types.PropertyDefinition{{ID: "modulus"}},
		TestMethods: []types.TestMethod{{ID: "iso527"}},
	}

	assert.Equal(t, []string{
		"measurement bad-prop references unknown property cte",
		"measurement double has 2 owners, want 1",
		"measurement orphan has 0 owners, want 1",
		"requirement profile p1 references unknown property tensile",
		"test matrix mx2 references unknown test method d792",
	}, Validate(ds, known))
}

func TestValidateConsistent(t *testing.T) {
	assert.Empty(t, Validate(&types.Dataset{}, nil))
}
