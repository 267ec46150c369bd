package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event-management/client/internal/db"
)

// SQLRepository stores keys in the client_storage table (see internal/db/migrations).
// It works against sqlite (local profile file) and Postgres (shared deployments).
type SQLRepository struct {
	db      *sql.DB
	getQ    string
	setQ    string
	deleteQ string
	nowF    func() time.Time
}

// NewSQLRepository returns a repository over conn. driver selects the placeholder dialect
// and must be db.DriverSQLite or db.DriverPostgres. The schema must already be migrated.
func NewSQLRepository(conn *sql.DB, driver string) (*SQLRepository, error) {
	r := &SQLRepository{db: conn, nowF: func() time.Time { return time.Now().UTC() }}
	switch driver {
	case db.DriverPostgres:
		r.getQ = `SELECT value FROM client_storage WHERE key = $1`
		r.setQ = `INSERT INTO client_storage (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
		r.deleteQ = `DELETE FROM client_storage WHERE key = $1`
	case db.DriverSQLite:
		r.getQ = `SELECT value FROM client_storage WHERE key = ?`
		r.setQ = `INSERT INTO client_storage (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
		r.deleteQ = `DELETE FROM client_storage WHERE key = ?`
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	return r, nil
}

// Get returns the value for key, or ok false if no row exists.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, r.getQ, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set upserts value under key.
func (r *SQLRepository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.setQ, key, value, r.nowF()); err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in a single transaction so a partial clear is never observed.
func (r *SQLRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, r.deleteQ, k); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: delete %s: %w", k, err)
		}
	}
	return tx.Commit()
}
