package testutil

import (
	"path/filepath"
	"testing"

	"github.com/admissions-dev/admissions/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated SQLite database that lives in the test's
// temp dir and is closed on cleanup.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "admissions.db")
	conn, err := db.Open(sqlite.Open(path), db.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, db.MigrateDatabase(conn))

	t.Cleanup(func() {
		_ = db.Close(conn)
	})

	return conn
}
