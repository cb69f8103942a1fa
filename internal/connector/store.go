package connector

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

// Store loads a compressed connection-cost matrix from a small embedded
// SQLite database: one row per (name, cols, resolution, table BLOB) record,
// keyed by a table name so a single database can hold matrices for
// multiple data modules (e.g. distinct dictionary generations). Loading is
// collapsed with singleflight so concurrently starting converter instances
// that share a Store never issue the same query twice; the conversion hot
// path itself never touches the Store again once it has a *Matrix.
type Store struct {
	db    *sql.DB
	group singleflight.Group
}

// OpenStore opens (creating if absent) the SQLite database at dsn and
// ensures its schema exists.
func OpenStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connector: open cost-matrix store")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS connection_matrix (
		name       TEXT PRIMARY KEY,
		cols       INTEGER NOT NULL,
		resolution INTEGER NOT NULL,
		table_blob BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connector: create schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put stores (or replaces) a named matrix.
func (s *Store) Put(ctx context.Context, name string, cols int, resolution int32, table []int16) error {
	blob := make([]byte, len(table)*2)
	for i, v := range table {
		blob[2*i] = byte(v)
		blob[2*i+1] = byte(v >> 8)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connection_matrix(name, cols, resolution, table_blob) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET cols=excluded.cols, resolution=excluded.resolution, table_blob=excluded.table_blob`,
		name, cols, resolution, blob)
	if err != nil {
		return errors.Wrapf(err, "connector: put matrix %q", name)
	}
	return nil
}

// Load fetches and decodes the named matrix, collapsing concurrent callers
// requesting the same name into a single query.
func (s *Store) Load(ctx context.Context, name string) (*Matrix, error) {
	v, err, _ := s.group.Do(name, func() (interface{}, error) {
		row := s.db.QueryRowContext(ctx,
			`SELECT cols, resolution, table_blob FROM connection_matrix WHERE name = ?`, name)
		var cols int
		var resolution int32
		var blob []byte
		if err := row.Scan(&cols, &resolution, &blob); err != nil {
			return nil, errors.Wrapf(err, "connector: load matrix %q", name)
		}
		table := make([]int16, len(blob)/2)
		for i := range table {
			table[i] = int16(uint16(blob[2*i]) | uint16(blob[2*i+1])<<8)
		}
		return NewMatrix(table, cols, resolution), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Matrix), nil
}
