package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/rpggio/internpm/migrations"
	_ "modernc.org/sqlite"
)

const initialMigration = "001_initial_schema.up.sql"

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the embedded schema. It is safe to run repeatedly.
func (db *DB) RunMigrations() error {
	migration, err := migrations.FS.ReadFile(initialMigration)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	if _, err := db.Exec(string(migration)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
