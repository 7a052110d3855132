package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/database"
	"github.com/mkrupp/bookswap/internal/infra/logging"
)

const listingColumns = "id, book_id, lender_id, availability, condition, location, created_at"

// SQLiteListingRepository implements Repository using SQLite as the storage backend.
type SQLiteListingRepository struct {
	db  *database.SQLite
	log logging.Logger
}

var _ Repository = (*SQLiteListingRepository)(nil)

// NewSQLiteListingRepository creates a SQLiteListingRepository on an open database handle.
func NewSQLiteListingRepository(db *database.SQLite) *SQLiteListingRepository {
	return &SQLiteListingRepository{
		db:  db,
		log: logging.GetLogger("repo.listing.sqlite_listing_repository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var listing domain.Listing

	if err := row.Scan(
		&listing.ID,
		&listing.BookID,
		&listing.LenderID,
		&listing.Availability,
		&listing.Condition,
		&listing.Location,
		&listing.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &listing, nil
}

// GetListingByLenderAndBook implements Repository.GetListingByLenderAndBook using SQLite.
func (r *SQLiteListingRepository) GetListingByLenderAndBook(
	ctx context.Context,
	lenderID, bookID domain.ID,
) (*domain.Listing, bool, error) {
	listing, err := scanListing(r.db.DB.QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM listings WHERE lender_id = ? AND book_id = ?",
		lenderID,
		bookID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query listing: %w", err)
	}

	return listing, true, nil
}

// CreateListing implements Repository.CreateListing using SQLite.
func (r *SQLiteListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	defer r.db.LockWrites()()

	id := domain.NewID()
	createdAt := time.Now().Unix()

	availability := listing.Availability
	if availability == "" {
		availability = domain.AvailabilityAvailable
	}

	_, err := r.db.DB.ExecContext(ctx,
		"INSERT INTO listings ("+listingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		id,
		listing.BookID,
		listing.LenderID,
		availability,
		listing.Condition,
		listing.Location,
		createdAt,
	)
	if err != nil {
		if database.IsSQLiteUniqueViolation(err, "listings.lender_id") {
			err = errors.Join(domain.ErrAlreadyListed, err)
		}

		return fmt.Errorf("insert listing: %w", err)
	}

	listing.ID = id
	listing.Availability = availability
	listing.CreatedAt = createdAt

	r.log.DebugContext(ctx, "listing inserted", logging.Group("listing", "id", id))

	return nil
}

// UpdateListingForLender implements Repository.UpdateListingForLender using SQLite.
func (r *SQLiteListingRepository) UpdateListingForLender(
	ctx context.Context,
	id, lenderID domain.ID,
	patch domain.ListingPatch,
) (*domain.Listing, error) {
	defer r.db.LockWrites()()

	listing, err := scanListing(r.db.DB.QueryRowContext(ctx, `
		UPDATE listings SET
			availability = COALESCE(?, availability),
			condition    = COALESCE(?, condition),
			location     = COALESCE(?, location)
		WHERE id = ? AND lender_id = ?
		RETURNING `+listingColumns,
		patch.Availability,
		patch.Condition,
		patch.Location,
		id,
		lenderID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrListingNotFoundOrUnauthorized, err)
		}

		return nil, fmt.Errorf("update listing: %w", err)
	}

	return listing, nil
}

// DeleteListingForLender implements Repository.DeleteListingForLender using SQLite.
func (r *SQLiteListingRepository) DeleteListingForLender(ctx context.Context, id, lenderID domain.ID) error {
	defer r.db.LockWrites()()

	res, err := r.db.DB.ExecContext(ctx, "DELETE FROM listings WHERE id = ? AND lender_id = ?", id, lenderID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("delete listing: %w", domain.ErrListingNotFoundOrUnauthorized)
	}

	return nil
}

// ListListingsByLender implements Repository.ListListingsByLender using SQLite.
func (r *SQLiteListingRepository) ListListingsByLender(
	ctx context.Context,
	lenderID domain.ID,
) ([]domain.Listing, error) {
	return r.listListings(ctx, "lender_id = ?", lenderID)
}

// ListListingsByBook implements Repository.ListListingsByBook using SQLite.
func (r *SQLiteListingRepository) ListListingsByBook(
	ctx context.Context,
	bookID domain.ID,
	filter domain.ListingFilter,
) ([]domain.Listing, error) {
	where := `book_id = ? AND ` + database.FoldFunc + `(location) LIKE ? ESCAPE '\'`
	args := []any{bookID, database.FoldPrefix(filter.LocationPrefix)}

	if filter.Condition != "" {
		where += " AND condition = ?"
		args = append(args, filter.Condition)
	}

	return r.listListings(ctx, where, args...)
}

func (r *SQLiteListingRepository) listListings(ctx context.Context, where string, args ...any) ([]domain.Listing, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM listings WHERE "+where+" ORDER BY id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}

	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}

		listings = append(listings, *listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return listings, nil
}
