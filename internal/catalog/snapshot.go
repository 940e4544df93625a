// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/material-engine/pkg/types"
)

// Snapshot loads every collection into memory. Entities and definitions
// are ordered by id, measurements by date then id.
func (s *Store) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	snap := &types.Snapshot{}

	if err := s.loadProperties(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadEntities(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadMeasurements(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadProfiles(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadTestMethods(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadTestMatrices(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) loadProperties(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, unit, category FROM properties ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p              types.PropertyDefinition
			unit, category sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &unit, &category); err != nil {
			return fmt.Errorf("scanning property: %w", err)
		}
		p.Unit = unit.String
		p.Category = types.PropertyCategory(category.String)
		snap.Properties = append(snap.Properties, p)
	}
	return rows.Err()
}

func (s *Store) loadEntities(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, id, body FROM entities ORDER BY type, id`)
	if err != nil {
		return fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, id, body string
		if err := rows.Scan(&kind, &id, &body); err != nil {
			return fmt.Errorf("scanning entity: %w", err)
		}
		if err := decodeEntity(snap, types.EntityType(kind), []byte(body)); err != nil {
			return fmt.Errorf("decoding %s %s: %w", kind, id, err)
		}
	}
	return rows.Err()
}

func decodeEntity(snap *types.Snapshot, kind types.EntityType, body []byte) error {
	switch kind {
	case types.EntityMaterial:
		var m types.Material
		if err := json.Unmarshal(body, &m); err != nil {
			return err
		}
		snap.Materials = append(snap.Materials, m)
	case types.EntityLayup:
		var l types.Layup
		if err := json.Unmarshal(body, &l); err != nil {
			return err
		}
		snap.Layups = append(snap.Layups, l)
	case types.EntityAssembly:
		var a types.Assembly
		if err := json.Unmarshal(body, &a); err != nil {
			return err
		}
		snap.Assemblies = append(snap.Assemblies, a)
	default:
		return fmt.Errorf("unknown entity type %q", kind)
	}
	return nil
}

func (s *Store) loadMeasurements(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, material_id, layup_id, assembly_id, property_id, result_value,
			date, laboratory_id, test_method, is_active
		 FROM measurements ORDER BY date, id`)
	if err != nil {
		return fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m                               types.Measurement
			materialID, layupID, assemblyID sql.NullString
			date, laboratoryID, testMethod  sql.NullString
			active                          sql.NullBool
		)
		if err := rows.Scan(
			&m.ID, &materialID, &layupID, &assemblyID, &m.PropertyID, &m.ResultValue,
			&date, &laboratoryID, &testMethod, &active,
		); err != nil {
			return fmt.Errorf("scanning measurement: %w", err)
		}
		m.MaterialID = materialID.String
		m.LayupID = layupID.String
		m.AssemblyID = assemblyID.String
		m.LaboratoryID = laboratoryID.String
		m.TestMethod = testMethod.String
		if active.Valid {
			v := active.Bool
			m.Active = &v
		}
		if date.String != "" {
			t, err := time.Parse(dateLayout, date.String)
			if err != nil {
				return fmt.Errorf("parsing date of measurement %s: %w", m.ID, err)
			}
			m.Date = t
		}
		snap.Measurements = append(snap.Measurements, m)
	}
	return rows.Err()
}

func (s *Store) loadProfiles(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, rules FROM requirement_profiles ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying requirement profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                        types.RequirementProfile
			name, description, rules sql.NullString
		)
		if err := rows.Scan(&p.ID, &name, &description, &rules); err != nil {
			return fmt.Errorf("scanning requirement profile: %w", err)
		}
		p.Name = name.String
		p.Description = description.String
		if rules.Valid {
			if err := json.Unmarshal([]byte(rules.String), &p.Rules); err != nil {
				return fmt.Errorf("decoding rules of %s: %w", p.ID, err)
			}
		}
		snap.RequirementProfiles = append(snap.RequirementProfiles, p)
	}
	return rows.Err()
}

func (s *Store) loadTestMethods(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, standard, properties FROM test_methods ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying test methods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m                      types.TestMethod
			name, standard, config sql.NullString
		)
		if err := rows.Scan(&m.ID, &name, &standard, &config); err != nil {
			return fmt.Errorf("scanning test method: %w", err)
		}
		m.Name = name.String
		m.Standard = standard.String
		if config.Valid {
			if err := json.Unmarshal([]byte(config.String), &m.Properties); err != nil {
				return fmt.Errorf("decoding properties of %s: %w", m.ID, err)
			}
		}
		snap.TestMethods = append(snap.TestMethods, m)
	}
	return rows.Err()
}

func (s *Store) loadTestMatrices(ctx context.Context, snap *types.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, test_method_id, material_id, specimens FROM test_matrices ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying test matrices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mx                                    types.TestMatrix
			name, methodID, materialID, specimens sql.NullString
		)
		if err := rows.Scan(&mx.ID, &name, &methodID, &materialID, &specimens); err != nil {
			return fmt.Errorf("scanning test matrix: %w", err)
		}
		mx.Name = name.String
		mx.TestMethodID = methodID.String
		mx.MaterialID = materialID.String
		if specimens.Valid {
			if err := json.Unmarshal([]byte(specimens.String), &mx.Specimens); err != nil {
				return fmt.Errorf("decoding specimens of %s: %w", mx.ID, err)
			}
		}
		snap.TestMatrices = append(snap.TestMatrices, mx)
	}
	return rows.Err()
}

// EntitySummary is one row of an entity search.
type EntitySummary struct {
	Type    types.EntityType `json:"type" yaml:"type"`
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Dataset string           `json:"dataset" yaml:"dataset"`
}

// FindEntities returns entities whose name contains query, ignoring case.
// An empty kind matches every entity type. Results are sorted by type, name.
func (s *Store) FindEntities(ctx context.Context, query string, kind types.EntityType) ([]EntitySummary, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT type, id, name, dataset FROM entities WHERE 1=1`)
	if query != "" {
		qb.WriteString(` AND lower(name) LIKE ?`)
		args = append(args, "%"+strings.ToLower(query)+"%")
	}
	if kind != "" {
		qb.WriteString(` AND type = ?`)
		args = append(args, string(kind))
	}
	qb.WriteString(` ORDER BY type, name, id`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var out []EntitySummary
	for rows.Next() {
		var (
			e    EntitySummary
			kind string
		)
		if err := rows.Scan(&kind, &e.ID, &e.Name, &e.Dataset); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		e.Type = types.EntityType(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Entity loads one entity by reference. It returns ErrNotFound when the
// entity does not exist.
func (s *Store) Entity(ctx context.Context, ref types.EntityRef) (types.Entity, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM entities WHERE type = ? AND id = ?`, string(ref.Type), ref.ID,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", ref.Type, ref.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s %s: %w", ref.Type, ref.ID, err)
	}

	var snap types.Snapshot
	if err := decodeEntity(&snap, ref.Type, []byte(body)); err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", ref.Type, ref.ID, err)
	}
	e, _ := snap.Entity(ref)
	return e, nil
}
