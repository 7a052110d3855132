package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/database"
	"github.com/mkrupp/bookswap/internal/repo"
	"github.com/mkrupp/bookswap/internal/svc/authsvc"
)

func TestSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	store, err := repo.Open(ctx, repo.Config{
		Driver: repo.DriverSQLite,
		SQLite: database.SQLiteConfig{Path: filepath.Join(dir, "seed.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authCfg := authsvc.AuthConfig{
		SecretFile:    filepath.Join(dir, "jwt.secret"),
		TokenDuration: 60,
		BcryptCost:    bcrypt.MinCost,
	}

	// seeding twice must start over rather than conflict
	require.NoError(t, seed(ctx, store, authCfg))
	require.NoError(t, seed(ctx, store, authCfg))

	kriszta, ok, err := store.Users.GetUserByUsername(ctx, "kriszta")
	require.NoError(t, err)
	require.True(t, ok)

	listings, err := store.Listings.ListListingsByLender(ctx, kriszta.ID)
	require.NoError(t, err)
	require.Len(t, listings, 4)
	assert.Equal(t, domain.AvailabilityBorrowed, listings[0].Availability)

	it, ok, err := store.Books.GetBookByTitleAuthor(ctx, "It", "Stephen King")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, kriszta.ID, it.CreatorID)
	assert.Equal(t, 1168, it.Page)

	sydney, err := store.Listings.ListListingsByBook(ctx, listings[1].BookID, domain.ListingFilter{LocationPrefix: "syd"})
	require.NoError(t, err)
	assert.NotEmpty(t, sydney)
}
