// Package repo opens the storage backend and wires the repositories onto it.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/bookswap/internal/infra/database"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	"github.com/mkrupp/bookswap/internal/repo/book"
	"github.com/mkrupp/bookswap/internal/repo/listing"
	"github.com/mkrupp/bookswap/internal/repo/user"
)

// Supported storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// ErrUnknownDriver is returned by Open for an unsupported Config.Driver.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Config selects and configures the storage backend.
type Config struct {
	// Driver is the storage backend ("sqlite" or "mongo")
	Driver string `env:"DRIVER" default:"sqlite"`

	SQLite database.SQLiteConfig `envPrefix:"SQLITE_"`
	Mongo  database.MongoConfig  `envPrefix:"MONGO_"`
}

// Store owns the storage handle for the lifetime of the process and exposes
// the repositories built on it.
type Store struct {
	Users    user.Repository
	Books    book.Repository
	Listings listing.Repository

	handle interface {
		Reset(ctx context.Context) error
		Close() error
	}
}

// Open connects to the configured backend and builds the repositories.
// The caller must Close the store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	log := logging.GetLogger("repo.store").With(logging.Group("db", "driver", cfg.Driver))

	var store *Store

	switch cfg.Driver {
	case DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		store = &Store{
			Users:    user.NewSQLiteUserRepository(db),
			Books:    book.NewSQLiteBookRepository(db),
			Listings: listing.NewSQLiteListingRepository(db),
			handle:   db,
		}
	case DriverMongo:
		db, err := database.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}

		store = &Store{
			Users:    user.NewMongoUserRepository(db),
			Books:    book.NewMongoBookRepository(db),
			Listings: listing.NewMongoListingRepository(db),
			handle:   db,
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	log.InfoContext(ctx, "store opened")

	return store, nil
}

// Reset deletes all users, books and listings.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.handle.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	return nil
}

// Close releases the storage handle.
func (s *Store) Close() error {
	if err := s.handle.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	return nil
}
