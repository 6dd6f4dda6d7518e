package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/internpm/internal/medium"
)

// Medium implements medium.Medium on the kv table
type Medium struct {
	db    *DB
	quota int64
}

// NewMedium creates a Medium. A zero or negative quota means unlimited.
func NewMedium(db *DB, quotaBytes int64) *Medium {
	return &Medium{db: db, quota: quotaBytes}
}

// Get retrieves the value stored under key
func (m *Medium) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := m.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value under key inside a transaction, rolling back when the
// write would push total usage past the quota
func (m *Medium) Set(ctx context.Context, key, value string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	size := medium.Usage(key, value)

	if m.quota > 0 {
		var others int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(size), 0) FROM kv WHERE key != ? AND counted = 1`, key,
		).Scan(&others)
		if err != nil {
			return fmt.Errorf("failed to compute usage: %w", err)
		}
		if others+size > m.quota {
			return medium.ErrQuotaExceeded
		}
	}

	query := `
		INSERT INTO kv (key, value, size, counted, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			size = excluded.size,
			counted = 1,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, key, value, size, time.Now()); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Stash writes value under key without counting it against the quota
func (m *Medium) Stash(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv (key, value, size, counted, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			size = excluded.size,
			counted = 0,
			updated_at = excluded.updated_at
	`
	size := medium.Usage(key, value)
	if _, err := m.db.ExecContext(ctx, query, key, value, size, time.Now()); err != nil {
		return fmt.Errorf("failed to stash key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Medium) Delete(ctx context.Context, key string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Used returns the bytes counted against the quota
func (m *Medium) Used(ctx context.Context) (int64, error) {
	var used int64
	if err := m.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM kv WHERE counted = 1`).Scan(&used); err != nil {
		return 0, fmt.Errorf("failed to compute usage: %w", err)
	}
	return used, nil
}
