// Package dbtest opens a migrated Postgres database for integration tests.
package dbtest

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	"account-service/internal/db"
	"account-service/internal/db/migrate"
)

// Open returns a connection to DATABASE_URL with all migrations applied.
// The test is skipped when DATABASE_URL is unset or unreachable.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Skipf("database connection failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Run(dsn, migrate.Up); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
	return conn
}
