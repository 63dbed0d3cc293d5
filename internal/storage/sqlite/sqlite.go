// Package sqlite stores formula parameters in an embedded SQLite file using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrParameterNotFound is returned by Delete when no parameter has the name.
var ErrParameterNotFound = errors.New("parameter not found")

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

const schema = `CREATE TABLE IF NOT EXISTS parameters (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// ParameterRepository is a SQLite-backed parameter store. It satisfies
// params.Store.
type ParameterRepository struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
//
// Postcondition: Returns a ready repository or a non-nil error.
func Open(ctx context.Context, path string) (*ParameterRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	for _, p := range append(pragmas, schema) {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("preparing database (%s): %w", p, err)
		}
	}
	return &ParameterRepository{db: db}, nil
}

// Close closes the database.
func (r *ParameterRepository) Close() error {
	return r.db.Close()
}

// Lookup returns the value of name, or "" when it is not stored.
func (r *ParameterRepository) Lookup(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM parameters WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying parameter: %w", err)
	}
	return value, nil
}

// Set stores value under name, replacing any previous value.
func (r *ParameterRepository) Set(ctx context.Context, name, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO parameters (name, value) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("storing parameter: %w", err)
	}
	return nil
}

// Delete removes name.
//
// Postcondition: Returns ErrParameterNotFound when nothing was deleted.
func (r *ParameterRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM parameters WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting parameter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting parameter: %w", err)
	}
	if n == 0 {
		return ErrParameterNotFound
	}
	return nil
}

// Names returns every stored parameter name in order.
func (r *ParameterRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM parameters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing parameters: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning parameter: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
