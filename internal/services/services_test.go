package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aster-app/aster/internal/database"
	"github.com/aster-app/aster/internal/models"
)

// testFixture bundles a database handle with the users created for a test.
type testFixture struct {
	db    *sql.DB
	users map[string]models.User
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func ctx() context.Context {
	return context.Background()
}
