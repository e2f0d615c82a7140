// Package dbtest opens throwaway sqlite databases with the production schema for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tryonlabs/tryon/internal/db"
)

// New creates a file-based SQLite database in the test's temp dir and migrates it.
// The pool holds a single connection so that concurrent transactions serialize
// the way row locks would on postgres.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "tryon_test.db")
	database, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database), "Failed to run database migrations")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return database
}
