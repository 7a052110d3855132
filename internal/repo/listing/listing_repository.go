package listing

import (
	"context"

	"github.com/mkrupp/bookswap/internal/domain"
)

// Repository defines the interface for listing data persistence.
type Repository interface {
	// GetListingByLenderAndBook retrieves the listing of bookID offered by lenderID.
	// Returns the listing and true if found, or nil and false if not found.
	GetListingByLenderAndBook(ctx context.Context, lenderID, bookID domain.ID) (*domain.Listing, bool, error)

	// CreateListing inserts a listing, assigning its ID and CreatedAt.
	// An empty Availability is stored as available.
	// Returns ErrAlreadyListed if the lender already lists the book.
	CreateListing(ctx context.Context, listing *domain.Listing) error

	// UpdateListingForLender applies patch to the listing with the given id if and
	// only if it belongs to lenderID, as a single conditional write.
	// Returns ErrListingNotFoundOrUnauthorized if nothing matched.
	UpdateListingForLender(
		ctx context.Context,
		id, lenderID domain.ID,
		patch domain.ListingPatch,
	) (*domain.Listing, error)

	// DeleteListingForLender removes the listing with the given id if and only if
	// it belongs to lenderID. Returns ErrListingNotFoundOrUnauthorized if nothing matched.
	DeleteListingForLender(ctx context.Context, id, lenderID domain.ID) error

	// ListListingsByLender returns every listing of lenderID, oldest first.
	ListListingsByLender(ctx context.Context, lenderID domain.ID) ([]domain.Listing, error)

	// ListListingsByBook returns the listings of bookID matching filter, oldest first.
	ListListingsByBook(ctx context.Context, bookID domain.ID, filter domain.ListingFilter) ([]domain.Listing, error)
}
