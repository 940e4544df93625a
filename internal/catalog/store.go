// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists material records in SQLite and hands them to the
// analysis engines as a read-only Snapshot.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/material-engine/internal/dataset"
	"github.com/pdiddy/material-engine/pkg/types"
)

const (
	dbFile = "materials.db"

	// dateLayout has a fixed-width fraction so stored dates sort as text.
	dateLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// Store manages the catalog SQLite database.
type Store struct {
	db          *sql.DB
	dataDir     string
	databaseDir string
}

// NewStore opens or creates the catalog database at
// DatabaseDir/materials.db and creates the schema if it does not exist.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DatabaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DatabaseDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:          db,
		dataDir:     cfg.DataDir,
		databaseDir: cfg.DatabaseDir,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			name TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			unit TEXT,
			category TEXT,
			dataset TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			type TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			body TEXT NOT NULL,
			dataset TEXT NOT NULL,
			PRIMARY KEY (type, id)
		)`,
		`CREATE TABLE IF NOT EXISTS measurements (
			id TEXT PRIMARY KEY,
			material_id TEXT,
			layup_id TEXT,
			assembly_id TEXT,
			property_id TEXT NOT NULL,
			result_value REAL NOT NULL,
			date TEXT,
			laboratory_id TEXT,
			test_method TEXT,
			is_active INTEGER,
			dataset TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_property ON measurements(property_id)`,
		`CREATE TABLE IF NOT EXISTS requirement_profiles (
			id TEXT PRIMARY KEY,
			name TEXT,
			description TEXT,
			rules TEXT,
			dataset TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS test_methods (
			id TEXT PRIMARY KEY,
			name TEXT,
			standard TEXT,
			properties TEXT,
			dataset TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS test_matrices (
			id TEXT PRIMARY KEY,
			name TEXT,
			test_method_id TEXT,
			material_id TEXT,
			specimens TEXT,
			dataset TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// datasetTables lists every table whose rows belong to a dataset file.
var datasetTables = []string{
	"properties", "entities", "measurements",
	"requirement_profiles", "test_methods", "test_matrices",
}

// IngestSummary holds counts from a catalog ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
	Removed int
}

// Total returns the number of dataset files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads dataset bundles from the data directory and loads them into
// the database. Unchanged files are skipped by modification time; a changed
// file replaces every record it contributed. Records of bundles whose file
// disappeared are removed. Reference problems are reported as warnings.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	files, err := dataset.Files(s.dataDir)
	if err != nil {
		return IngestSummary{}, err
	}

	var summary IngestSummary
	present := make(map[string]bool, len(files))

	for _, path := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := dataset.Name(path)
		present[name] = true

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM datasets WHERE name = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		ds, err := dataset.Load(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		known, err := s.Snapshot(ctx)
		if err != nil {
			return summary, err
		}
		for _, problem := range dataset.Validate(ds, known) {
			fmt.Fprintf(w, "warning %s: %s\n", name, problem)
		}

		if err := s.ingestDataset(ctx, name, ds, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		records := len(ds.Properties) + len(ds.Materials) + len(ds.Layups) +
			len(ds.Assemblies) + len(ds.Measurements) + len(ds.RequirementProfiles) +
			len(ds.TestMethods) + len(ds.TestMatrices)
		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d records)\n", name, records)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d records)\n", name, records)
			summary.Indexed++
		}
	}

	removed, err := s.removeMissing(ctx, present)
	if err != nil {
		return summary, err
	}
	for _, name := range removed {
		fmt.Fprintf(w, "removed %s\n", name)
	}
	summary.Removed = len(removed)

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d, removed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed, summary.Removed)

	return summary, nil
}

func (s *Store) ingestDataset(ctx context.Context, name string, ds *types.Dataset, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDataset(ctx, tx, name); err != nil {
		return err
	}

	for _, p := range ds.Properties {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO properties (id, name, unit, category, dataset) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name=excluded.name, unit=excluded.unit, category=excluded.category, dataset=excluded.dataset`,
			string(p.ID), p.Name, p.Unit, string(p.Category), name,
		)
		if err != nil {
			return fmt.Errorf("upserting property %s: %w", p.ID, err)
		}
	}

	var entities []types.Entity
	for _, m := range ds.Materials {
		entities = append(entities, m)
	}
	for _, l := range ds.Layups {
		entities = append(entities, l)
	}
	for _, a := range ds.Assemblies {
		entities = append(entities, a)
	}
	for _, e := range entities {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", e.EntityType(), e.EntityID(), err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entities (type, id, name, body, dataset) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(type, id) DO UPDATE SET
				name=excluded.name, body=excluded.body, dataset=excluded.dataset`,
			string(e.EntityType()), e.EntityID(), e.EntityName(), string(body), name,
		)
		if err != nil {
			return fmt.Errorf("upserting %s %s: %w", e.EntityType(), e.EntityID(), err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO measurements
			(id, material_id, layup_id, assembly_id, property_id, result_value,
			 date, laboratory_id, test_method, is_active, dataset)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing measurement insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range ds.Measurements {
		var active sql.NullBool
		if m.Active != nil {
			active = sql.NullBool{Bool: *m.Active, Valid: true}
		}
		dateStr := ""
		if !m.Date.IsZero() {
			dateStr = m.Date.UTC().Format(dateLayout)
		}
		_, err := stmt.ExecContext(ctx,
			m.ID, m.MaterialID, m.LayupID, m.AssemblyID, string(m.PropertyID), m.ResultValue,
			dateStr, m.LaboratoryID, m.TestMethod, active, name,
		)
		if err != nil {
			return fmt.Errorf("inserting measurement %s: %w", m.ID, err)
		}
	}

	for _, p := range ds.RequirementProfiles {
		rules, _ := json.Marshal(p.Rules)
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO requirement_profiles (id, name, description, rules, dataset)
			 VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, string(rules), name,
		)
		if err != nil {
			return fmt.Errorf("inserting requirement profile %s: %w", p.ID, err)
		}
	}

	for _, m := range ds.TestMethods {
		props, _ := json.Marshal(m.Properties)
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO test_methods (id, name, standard, properties, dataset)
			 VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Standard, string(props), name,
		)
		if err != nil {
			return fmt.Errorf("inserting test method %s: %w", m.ID, err)
		}
	}

	for _, mx := range ds.TestMatrices {
		specimens, _ := json.Marshal(mx.Specimens)
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO test_matrices (id, name, test_method_id, material_id, specimens, dataset)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			mx.ID, mx.Name, mx.TestMethodID, mx.MaterialID, string(specimens), name,
		)
		if err != nil {
			return fmt.Errorf("inserting test matrix %s: %w", mx.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (name, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		name, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating dataset status: %w", err)
	}

	return tx.Commit()
}

func deleteDataset(ctx context.Context, tx *sql.Tx, name string) error {
	for _, table := range datasetTables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE dataset = ?`, name); err != nil {
			return fmt.Errorf("deleting old %s: %w", table, err)
		}
	}
	return nil
}

// removeMissing deletes the records of every ingested dataset not in present.
func (s *Store) removeMissing(ctx context.Context, present map[string]bool) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning dataset: %w", err)
		}
		if !present[name] {
			stale = append(stale, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}

	for _, name := range stale {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("beginning transaction: %w", err)
		}
		if err := deleteDataset(ctx, tx, name); err != nil {
			tx.Rollback()
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("deleting dataset status: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing removal of %s: %w", name, err)
		}
	}
	return stale, nil
}
