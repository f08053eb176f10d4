// Package sqlite provides a SQLite-backed skill store for single-node hosts and development.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/udisondev/skillstats/internal/db"
	"github.com/udisondev/skillstats/internal/db/migrations"
)

// DB wraps a SQLite handle.
type DB struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database file and pings it.
func Open(ctx context.Context, path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	return &DB{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// SQL returns the underlying handle.
func (d *DB) SQL() *sql.DB { return d.sqlDB }

// RunMigrations applies the embedded host-table migrations.
func (d *DB) RunMigrations(ctx context.Context) error {
	return db.Migrate(ctx, d.sqlDB, "sqlite3", migrations.SQLiteDir)
}

// quoteIdent quotes an SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
