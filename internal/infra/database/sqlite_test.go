package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bookswap/internal/infra/database"
)

func openSQLite(t *testing.T) *database.SQLite {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), database.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "nested", "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestOpenSQLite_SchemaIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	for range 2 {
		db, err := database.OpenSQLite(ctx, database.SQLiteConfig{Path: path})
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}

func TestSQLite_UniqueViolation(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	insert := `INSERT INTO books (id, title, author, creator_id, created_at) VALUES (?, ?, ?, ?, 0)`

	_, err := db.DB.ExecContext(ctx, insert, "b1", "Dune", "Frank Herbert", "u1")
	require.NoError(t, err)

	_, err = db.DB.ExecContext(ctx, insert, "b2", "Dune", "Frank Herbert", "u2")
	require.Error(t, err)
	assert.True(t, database.IsSQLiteUniqueViolation(err, ""))
	assert.True(t, database.IsSQLiteUniqueViolation(err, "books.title"))
	assert.False(t, database.IsSQLiteUniqueViolation(err, "users.email"))

	_, err = db.DB.ExecContext(ctx, insert, "b3", "Dune", "Brian Herbert", "u1")
	require.NoError(t, err)

	assert.False(t, database.IsSQLiteUniqueViolation(assert.AnError, ""))
}

func TestSQLite_UsernameIsCaseInsensitiveUnique(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	insert := `INSERT INTO users (id, username, first_name, email, password_hash, created_at) VALUES (?, ?, '', ?, x'00', 0)`

	_, err := db.DB.ExecContext(ctx, insert, "u1", "Alice", "alice@example.com")
	require.NoError(t, err)

	_, err = db.DB.ExecContext(ctx, insert, "u2", "alice", "other@example.com")
	assert.True(t, database.IsSQLiteUniqueViolation(err, "users.username"))
}

func TestSQLite_Reset(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	_, err := db.DB.ExecContext(ctx,
		`INSERT INTO listings (id, book_id, lender_id, condition, location, created_at) VALUES ('l1', 'b1', 'u1', 'new', 'Budapest', 0)`)
	require.NoError(t, err)

	require.NoError(t, db.Reset(ctx))

	var count int
	require.NoError(t, db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count))
	assert.Zero(t, count)
}

func TestSQLite_FoldFunc(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	ctx := context.Background()

	var folded string
	require.NoError(t, db.DB.QueryRowContext(ctx,
		"SELECT "+database.FoldFunc+"(?)", "ÉLET és Öböl").Scan(&folded))
	assert.Equal(t, "élet és öböl", folded)

	var matches bool
	require.NoError(t, db.DB.QueryRowContext(ctx,
		"SELECT "+database.FoldFunc+`(?) LIKE ? ESCAPE '\'`, "Örkény István", database.FoldPrefix("ÖRK")).Scan(&matches))
	assert.True(t, matches)

	var null *string
	require.NoError(t, db.DB.QueryRowContext(ctx, "SELECT "+database.FoldFunc+"(NULL)").Scan(&null))
	assert.Nil(t, null)
}
