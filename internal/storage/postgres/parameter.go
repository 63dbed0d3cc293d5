package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrParameterNotFound is returned by Get when no parameter has the name.
var ErrParameterNotFound = errors.New("parameter not found")

// Parameter is one stored parameter.
type Parameter struct {
	Name      string
	Value     string
	UpdatedAt time.Time
}

// ParameterRepository provides parameter persistence operations. It
// satisfies params.Store.
type ParameterRepository struct {
	db *pgxpool.Pool
}

// NewParameterRepository creates a ParameterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewParameterRepository(db *pgxpool.Pool) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// Lookup returns the value of name, or "" when it is not stored.
//
// Postcondition: A missing row is not an error.
func (r *ParameterRepository) Lookup(ctx context.Context, name string) (string, error) {
	p, err := r.Get(ctx, name)
	if errors.Is(err, ErrParameterNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.Value, nil
}

// Get returns the stored parameter.
//
// Postcondition: Returns the Parameter or ErrParameterNotFound.
func (r *ParameterRepository) Get(ctx context.Context, name string) (Parameter, error) {
	var p Parameter
	err := r.db.QueryRow(ctx,
		`SELECT name, value, updated_at FROM parameters WHERE name = $1`,
		name,
	).Scan(&p.Name, &p.Value, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Parameter{}, ErrParameterNotFound
		}
		return Parameter{}, fmt.Errorf("querying parameter: %w", err)
	}
	return p, nil
}

// Set stores value under name, replacing any previous value.
//
// Precondition: name must be non-empty.
func (r *ParameterRepository) Set(ctx context.Context, name, value string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO parameters (name, value)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
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
	tag, err := r.db.Exec(ctx, `DELETE FROM parameters WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting parameter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParameterNotFound
	}
	return nil
}

// List returns every stored parameter ordered by name.
func (r *ParameterRepository) List(ctx context.Context) ([]Parameter, error) {
	rows, err := r.db.Query(ctx, `SELECT name, value, updated_at FROM parameters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing parameters: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Parameter, error) {
		var p Parameter
		err := row.Scan(&p.Name, &p.Value, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning parameters: %w", err)
	}
	return out, nil
}
