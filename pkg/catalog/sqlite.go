package catalog

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

// schema.sql defines the experiments and structures tables used by the
// sqlite-backed catalog.
//
//go:embed schema.sql
var schemaSQL string

// SQLiteProvider serves the catalog from a local sqlite database, the
// durable form of a previously downloaded cache. The database is opened
// read-mostly; Put methods exist so a download step can populate it.
type SQLiteProvider struct {
	db *sql.DB
}

var _ Provider = (*SQLiteProvider)(nil)

// OpenSQLite opens (creating if needed) a catalog database at path.
func OpenSQLite(path string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	return &SQLiteProvider{db: db}, nil
}

// Close releases the underlying database handle.
func (p *SQLiteProvider) Close() error { return p.db.Close() }

// Experiments returns all cached experiments.
func (p *SQLiteProvider) Experiments() ([]Experiment, error) {
	rows, err := p.db.Query(`
		SELECT id, structure_abbrev, injection_x, injection_y, injection_z
		FROM experiments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying experiments: %w", err)
	}
	defer rows.Close()

	var exps []Experiment
	for rows.Next() {
		var e Experiment
		if err := rows.Scan(&e.ID, &e.StructureAbbrev, &e.InjectionX, &e.InjectionY, &e.InjectionZ); err != nil {
			return nil, fmt.Errorf("scanning experiment row: %w", err)
		}
		exps = append(exps, e)
	}
	return exps, rows.Err()
}

// StructureTree returns all cached structures.
func (p *SQLiteProvider) StructureTree() ([]Structure, error) {
	rows, err := p.db.Query(`
		SELECT id, acronym, name, parent_id FROM structures ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying structures: %w", err)
	}
	defer rows.Close()

	var tree []Structure
	for rows.Next() {
		var s Structure
		if err := rows.Scan(&s.ID, &s.Acronym, &s.Name, &s.ParentID); err != nil {
			return nil, fmt.Errorf("scanning structure row: %w", err)
		}
		tree = append(tree, s)
	}
	return tree, rows.Err()
}

// PutExperiment inserts or replaces an experiment. Used by the cache
// population step, not by the transform core.
func (p *SQLiteProvider) PutExperiment(e Experiment) error {
	_, err := p.db.Exec(`
		INSERT OR REPLACE INTO experiments
		(id, structure_abbrev, injection_x, injection_y, injection_z)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.StructureAbbrev, e.InjectionX, e.InjectionY, e.InjectionZ)
	if err != nil {
		return fmt.Errorf("storing experiment %d: %w", e.ID, err)
	}
	return nil
}

// PutStructure inserts or replaces a structure-tree node.
func (p *SQLiteProvider) PutStructure(s Structure) error {
	_, err := p.db.Exec(`
		INSERT OR REPLACE INTO structures (id, acronym, name, parent_id)
		VALUES (?, ?, ?, ?)`,
		s.ID, s.Acronym, s.Name, s.ParentID)
	if err != nil {
		return fmt.Errorf("storing structure %d: %w", s.ID, err)
	}
	return nil
}
