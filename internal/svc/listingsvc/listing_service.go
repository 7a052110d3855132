package listingsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	"github.com/mkrupp/bookswap/internal/infra/validation"
	"github.com/mkrupp/bookswap/internal/repo/book"
	"github.com/mkrupp/bookswap/internal/repo/listing"
	"github.com/mkrupp/bookswap/internal/repo/user"
)

// ListingService reconciles books and the listings lenders offer for them.
// Books are shared between lenders; only a book's creator may change it,
// and only a listing's lender may change or remove the listing.
type ListingService struct {
	Books     book.Repository
	Listings  listing.Repository
	Users     user.Repository
	Log       logging.Logger
	Validator *validation.Validator
}

// NewListingService creates a new ListingService on the given repositories.
func NewListingService(books book.Repository, listings listing.Repository, users user.Repository) *ListingService {
	return &ListingService{
		Books:     books,
		Listings:  listings,
		Users:     users,
		Log:       logging.GetLogger("svc.listingsvc.listing_service"),
		Validator: validation.New(),
	}
}

// AddBookToListing lists a copy of a book for actor. The book is registered
// with actor as creator unless a book with the same title and author exists.
// Returns ErrAlreadyListed if actor already lists the book.
func (s *ListingService) AddBookToListing(
	ctx context.Context,
	actor domain.ID,
	req AddListingRequest,
) (_ domain.BookListingView, err error) {
	log := s.Log.With(logging.Group("book", "title", req.Title, "author", req.Author))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "add listing failed", "error", err)
		} else {
			log.DebugContext(ctx, "listing added")
		}
	}()

	if err := s.Validator.Struct(req); err != nil {
		return domain.BookListingView{}, err //nolint:wrapcheck
	}

	found, err := s.findOrCreateBook(ctx, actor, req)
	if err != nil {
		return domain.BookListingView{}, err
	}

	log = log.With(logging.Group("book", "id", found.ID))

	if _, ok, err := s.Listings.GetListingByLenderAndBook(ctx, actor, found.ID); err != nil {
		return domain.BookListingView{}, fmt.Errorf("get listing: %w", err)
	} else if ok {
		return domain.BookListingView{}, domain.ErrAlreadyListed
	}

	newListing := &domain.Listing{
		BookID:       found.ID,
		LenderID:     actor,
		Availability: domain.AvailabilityAvailable,
		Condition:    domain.Condition(req.Condition),
		Location:     req.Location,
	}

	// the unique index catches a second listing racing past the check above
	if err := s.Listings.CreateListing(ctx, newListing); err != nil {
		return domain.BookListingView{}, fmt.Errorf("create listing: %w", err)
	}

	return domain.BookListingView{
		Book:    domain.NewBookViewFor(*found, actor),
		Listing: domain.NewListingView(*newListing),
	}, nil
}

func (s *ListingService) findOrCreateBook(
	ctx context.Context,
	actor domain.ID,
	req AddListingRequest,
) (*domain.Book, error) {
	found, ok, err := s.Books.GetBookByTitleAuthor(ctx, req.Title, req.Author)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	} else if ok {
		return found, nil
	}

	newBook := req.Book(actor)

	err = s.Books.CreateBook(ctx, &newBook)
	if err == nil {
		return &newBook, nil
	} else if !errors.Is(err, domain.ErrBookAlreadyExists) {
		return nil, fmt.Errorf("create book: %w", err)
	}

	// lost the race against another lender registering the same book
	found, ok, err = s.Books.GetBookByTitleAuthor(ctx, req.Title, req.Author)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	} else if !ok {
		return nil, errors.New("book missing after create conflict")
	}

	return found, nil
}

// UpdateBookAndListing applies a partial update to a book and one of actor's
// listings. The book half is applied only if actor created the book and is
// skipped otherwise. Returns an *EmptyValueError for empty string values,
// ErrBookNotFoundOrUnauthorized if the book does not exist and
// ErrListingNotFoundOrUnauthorized if actor does not own the listing.
func (s *ListingService) UpdateBookAndListing(
	ctx context.Context,
	actor, bookID, listingID domain.ID,
	req UpdateListingRequest,
) (_ domain.BookListingView, err error) {
	log := s.Log.With(
		logging.Group("book", "id", bookID),
		logging.Group("listing", "id", listingID),
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update listing failed", "error", err)
		} else {
			log.DebugContext(ctx, "listing updated")
		}
	}()

	if field, ok := req.EmptyField(); ok {
		return domain.BookListingView{}, &domain.EmptyValueError{Field: field}
	}

	if err := s.Validator.Struct(req); err != nil {
		return domain.BookListingView{}, err //nolint:wrapcheck
	}

	found, ok, err := s.Books.GetBookByID(ctx, bookID)
	if err != nil {
		return domain.BookListingView{}, fmt.Errorf("get book: %w", err)
	} else if !ok {
		return domain.BookListingView{}, domain.ErrBookNotFoundOrUnauthorized
	}

	if patch := req.BookPatch(); found.CreatorID == actor && !patch.IsEmpty() {
		found, err = s.Books.UpdateBookForCreator(ctx, bookID, actor, patch)
		if err != nil {
			return domain.BookListingView{}, fmt.Errorf("update book: %w", err)
		}
	}

	updated, err := s.Listings.UpdateListingForLender(ctx, listingID, actor, req.ListingPatch())
	if err != nil {
		return domain.BookListingView{}, fmt.Errorf("update listing: %w", err)
	}

	return domain.BookListingView{
		Book:    domain.NewBookViewFor(*found, actor),
		Listing: domain.NewListingView(*updated),
	}, nil
}

// DeleteListing removes one of actor's listings.
// Returns ErrListingNotFoundOrUnauthorized if actor does not own the listing.
func (s *ListingService) DeleteListing(ctx context.Context, actor, listingID domain.ID) (err error) {
	log := s.Log.With(logging.Group("listing", "id", listingID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete listing failed", "error", err)
		} else {
			log.DebugContext(ctx, "listing deleted")
		}
	}()

	if err := s.Listings.DeleteListingForLender(ctx, listingID, actor); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	return nil
}

// LenderListings returns every listing of actor with its book, oldest first.
func (s *ListingService) LenderListings(ctx context.Context, actor domain.ID) (_ []domain.BookListingView, err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "list lender listings failed", "error", err)
		}
	}()

	listings, err := s.Listings.ListListingsByLender(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	books := make(map[domain.ID]*domain.Book)
	views := make([]domain.BookListingView, 0, len(listings))

	for _, l := range listings {
		b, ok := books[l.BookID]
		if !ok {
			b, ok, err = s.Books.GetBookByID(ctx, l.BookID)
			if err != nil {
				return nil, fmt.Errorf("get book: %w", err)
			} else if !ok {
				// books are never deleted
				return nil, fmt.Errorf("book %s of listing %s: %w", l.BookID, l.ID, domain.ErrDanglingListing)
			}

			books[l.BookID] = b
		}

		views = append(views, domain.BookListingView{
			Book:    domain.NewBookViewFor(*b, actor),
			Listing: domain.NewListingView(l),
		})
	}

	return views, nil
}

// SearchListings finds the first book matching the title and author prefixes
// and returns its listings matching the location prefix and condition,
// each with the lender's contact card.
// Returns ErrBookNotFound or ErrListingsNotFound when nothing matches.
func (s *ListingService) SearchListings(
	ctx context.Context,
	req SearchRequest,
) (_ domain.SearchResultView, err error) {
	log := s.Log.With(logging.Group("search", "title", req.Title, "author", req.Author))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "search listings failed", "error", err)
		} else {
			log.DebugContext(ctx, "listings found")
		}
	}()

	if err := s.Validator.Struct(req); err != nil {
		return domain.SearchResultView{}, err //nolint:wrapcheck
	}

	found, err := s.Books.SearchBook(ctx, req.Title, req.Author)
	if err != nil {
		return domain.SearchResultView{}, fmt.Errorf("search book: %w", err)
	}

	listings, err := s.Listings.ListListingsByBook(ctx, found.ID, domain.ListingFilter{
		LocationPrefix: req.Location,
		Condition:      domain.Condition(req.Condition),
	})
	if err != nil {
		return domain.SearchResultView{}, fmt.Errorf("list listings: %w", err)
	} else if len(listings) == 0 {
		return domain.SearchResultView{}, domain.ErrListingsNotFound
	}

	lenders := make(map[domain.ID]domain.LenderView)
	result := domain.SearchResultView{
		Book:     domain.NewBookView(*found),
		Listings: make([]domain.SearchListingView, 0, len(listings)),
	}

	for _, l := range listings {
		lender, ok := lenders[l.LenderID]
		if !ok {
			u, ok, err := s.Users.GetUserByID(ctx, l.LenderID)
			if err != nil {
				return domain.SearchResultView{}, fmt.Errorf("get lender: %w", err)
			} else if ok {
				lender = domain.LenderView{FirstName: u.FirstName, Email: u.Email}
			}

			lenders[l.LenderID] = lender
		}

		result.Listings = append(result.Listings, domain.SearchListingView{
			ListingView: domain.NewListingView(l),
			Lender:      lender,
		})
	}

	return result, nil
}

// GetBook returns the book with the given id.
// Returns ErrBookNotFound if there is none.
func (s *ListingService) GetBook(ctx context.Context, bookID domain.ID) (_ domain.BookView, err error) {
	log := s.Log.With(logging.Group("book", "id", bookID))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "get book failed", "error", err)
		} else {
			log.DebugContext(ctx, "book found")
		}
	}()

	found, ok, err := s.Books.GetBookByID(ctx, bookID)
	if err != nil {
		return domain.BookView{}, fmt.Errorf("get book: %w", err)
	} else if !ok {
		return domain.BookView{}, domain.ErrBookNotFound
	}

	return domain.NewBookView(*found), nil
}
