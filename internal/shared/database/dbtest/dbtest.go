// Package dbtest provides a migrated in-memory sqlite database for tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"astro-server/internal/shared/config"
	"astro-server/internal/shared/database"
)

// New opens a fresh in-memory database with all migrations applied. It is
// closed when the test finishes.
func New(t testing.TB) *database.DB {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.Open(ctx, config.DriverSQLite, ":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}
