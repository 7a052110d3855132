package listingsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/bookswap/internal/domain"
	context_ "github.com/mkrupp/bookswap/internal/infra/context"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	http_ "github.com/mkrupp/bookswap/internal/infra/transport/http"
)

// Messages returned to clients.
const (
	msgAlreadyListed       = "This book was already listed."
	msgBookNotFound        = "Book can not be found!"
	msgListingsNotFound    = "Listing can not be found for the book!"
	msgInvalidListingID    = "Invalid listingId."
	msgInvalidBookID       = "Invalid bookId."
	msgListingDeleted      = "Listing successfully deleted!"
	msgBookTitleTaken      = "A book with this title and author already exists."
	msgBookUnauthorized    = "Request is not authorized or Book can not be found in the database."
	msgListingUnauthorized = "Request is not authorized or Listing can not be found in the database."
	msgInvalidBody         = "Invalid request body."
)

// HTTPTransport handles HTTP requests for the listing service.
// Every route requires a bearer token.
type HTTPTransport struct {
	listingSvc *ListingService
	verifier   http_.TokenVerifier
	log        logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance.
// Tokens are verified by verifier.
func NewHTTPTransport(listingSvc *ListingService, verifier http_.TokenVerifier) *HTTPTransport {
	return &HTTPTransport{
		listingSvc: listingSvc,
		verifier:   verifier,
		log:        logging.GetLogger("svc.listingsvc.http_transport"),
	}
}

// RegisterRoutes implements http_.HTTPTransport and sets up routes for the listing service endpoints:
// - GET /api/listing: List the caller's listings
// - GET /api/listing/search: Search listings by book title and author
// - POST /api/listing: List a book
// - PATCH /api/listing/{bookId}/{listingId}: Update a book and listing
// - DELETE /api/listing/{listingId}: Delete a listing
// - GET /api/book/{bookId}: Get a book.
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	authorize := func(h http.HandlerFunc) http.Handler {
		return http_.AuthorizingMiddleware(h, ht.verifier, ht.log)
	}

	mux.Handle("GET /api/listing", authorize(ht.HandleLenderListings))
	mux.Handle("GET /api/listing/search", authorize(ht.HandleSearch))
	mux.Handle("POST /api/listing", authorize(ht.HandleAddListing))
	mux.Handle("PATCH /api/listing/{bookId}/{listingId}", authorize(ht.HandleUpdate))
	mux.Handle("DELETE /api/listing/{listingId}", authorize(ht.HandleDelete))
	mux.Handle("GET /api/book/{bookId}", authorize(ht.HandleGetBook))
}

func (ht *HTTPTransport) requestLogger(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

// HandleLenderListings returns the caller's listings with their books.
func (ht *HTTPTransport) HandleLenderListings(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLenderListings(w, r)
}

func (ht *HTTPTransport) handleLenderListings(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "list lender listings failed", "error", err)
		}
	}(r.Context())

	views, err := ht.listingSvc.LenderListings(r.Context(), actor(r))
	if err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, views)
}

// HandleSearch searches listings.
// Expects query parameters title, and optionally author, location and condition.
func (ht *HTTPTransport) HandleSearch(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleSearch(w, r)
}

func (ht *HTTPTransport) handleSearch(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "search failed", "error", err)
		}
	}(r.Context())

	result, err := ht.listingSvc.SearchListings(r.Context(), NewSearchRequest(r.URL.Query()))
	if err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, result)
}

// HandleAddListing lists a book for the caller.
// Expects a JSON body with imgUrl, title, author, page, releaseYear, condition and location.
func (ht *HTTPTransport) HandleAddListing(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleAddListing(w, r)
}

func (ht *HTTPTransport) handleAddListing(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "add listing failed", "error", err)
		}
	}(r.Context())

	var req AddListingRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return writeError(w, err)
	}

	view, err := ht.listingSvc.AddBookToListing(r.Context(), actor(r), req)
	if err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, view)
}

// HandleUpdate applies a partial update to a book and one of the caller's listings.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpdate(w, r)
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "update listing failed", "error", err)
		}
	}(r.Context())

	listingID, err := domain.ParseID(r.PathValue("listingId"))
	if err != nil {
		return writeBadRequest(w, err, msgInvalidListingID)
	}

	bookID, err := domain.ParseID(r.PathValue("bookId"))
	if err != nil {
		return writeBadRequest(w, err, msgInvalidBookID)
	}

	var req UpdateListingRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return writeError(w, err)
	}

	view, err := ht.listingSvc.UpdateBookAndListing(r.Context(), actor(r), bookID, listingID, req)
	if err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, view)
}

// HandleDelete removes one of the caller's listings.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDelete(w, r)
}

func (ht *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "delete listing failed", "error", err)
		}
	}(r.Context())

	listingID, err := domain.ParseID(r.PathValue("listingId"))
	if err != nil {
		return writeBadRequest(w, err, msgInvalidListingID)
	}

	if err := ht.listingSvc.DeleteListing(r.Context(), actor(r), listingID); err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, http_.MessageResponse{Message: msgListingDeleted})
}

// HandleGetBook returns a single book.
func (ht *HTTPTransport) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetBook(w, r)
}

func (ht *HTTPTransport) handleGetBook(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "get book failed", "error", err)
		}
	}(r.Context())

	bookID, err := domain.ParseID(r.PathValue("bookId"))
	if err != nil {
		return writeBadRequest(w, err, msgInvalidBookID)
	}

	view, err := ht.listingSvc.GetBook(r.Context(), bookID)
	if err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, view)
}

// actor returns the authenticated user. AuthorizingMiddleware guarantees it is set.
func actor(r *http.Request) domain.ID {
	userID, _ := context_.UserIDFromContext(r.Context())

	return userID
}

func writeBadRequest(w http.ResponseWriter, err error, message string) error {
	if writeErr := http_.WriteError(w, http.StatusBadRequest, message); writeErr != nil {
		return errors.Join(err, fmt.Errorf("write error response: %w", writeErr))
	}

	return err
}

// writeError answers with the status and message err maps to and returns err.
func writeError(w http.ResponseWriter, err error) error {
	var (
		validationErr *domain.ValidationError
		emptyErr      *domain.EmptyValueError
		writeErr      error
	)

	switch {
	case errors.As(err, &validationErr):
		writeErr = http_.WriteErrors(w, http.StatusUnprocessableEntity, validationErr.Messages)
	case errors.As(err, &emptyErr):
		writeErr = http_.WriteError(w, http.StatusBadRequest, emptyErr.Error())
	case errors.Is(err, http_.ErrInvalidBody):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgInvalidBody)
	case errors.Is(err, domain.ErrAlreadyListed):
		writeErr = http_.WriteError(w, http.StatusConflict, msgAlreadyListed)
	case errors.Is(err, domain.ErrBookAlreadyExists):
		writeErr = http_.WriteError(w, http.StatusConflict, msgBookTitleTaken)
	case errors.Is(err, domain.ErrBookNotFound):
		writeErr = http_.WriteError(w, http.StatusNotFound, msgBookNotFound)
	case errors.Is(err, domain.ErrListingsNotFound):
		writeErr = http_.WriteError(w, http.StatusNotFound, msgListingsNotFound)
	case errors.Is(err, domain.ErrBookNotFoundOrUnauthorized):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgBookUnauthorized)
	case errors.Is(err, domain.ErrListingNotFoundOrUnauthorized):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgListingUnauthorized)
	default:
		writeErr = http_.WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}

	if writeErr != nil {
		return errors.Join(err, fmt.Errorf("write error response: %w", writeErr))
	}

	return err
}
