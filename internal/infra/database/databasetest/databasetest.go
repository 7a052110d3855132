// Package databasetest opens throwaway storage handles for repository tests.
package databasetest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/database"
)

// MongoURIEnv names the variable that enables MongoDB backed test runs.
const MongoURIEnv = "BOOKSWAP_TEST_MONGO_URI"

// SQLite opens a fresh database in a temporary directory.
func SQLite(t *testing.T) *database.SQLite {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), database.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// Mongo opens a uniquely named database on the server named by MongoURIEnv
// and drops it when the test ends. The test is skipped if the variable is unset.
func Mongo(t *testing.T) *database.Mongo {
	t.Helper()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skip(MongoURIEnv + " not set")
	}

	ctx := context.Background()

	db, err := database.OpenMongo(ctx, database.MongoConfig{
		URI:            uri,
		Database:       "bookswap_test_" + strings.ReplaceAll(domain.NewID().String(), "-", ""),
		ConnectTimeout: 10,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.DB.Drop(ctx)
		db.Close()
	})

	return db
}
