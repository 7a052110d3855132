package listingsvc_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/database/databasetest"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	"github.com/mkrupp/bookswap/internal/infra/validation"
	"github.com/mkrupp/bookswap/internal/repo/book"
	"github.com/mkrupp/bookswap/internal/repo/listing"
	"github.com/mkrupp/bookswap/internal/repo/user"
	"github.com/mkrupp/bookswap/internal/svc/listingsvc"
)

func ptr[T any](v T) *T {
	return &v
}

func newTestService(t *testing.T) *listingsvc.ListingService {
	t.Helper()

	db := databasetest.SQLite(t)

	return &listingsvc.ListingService{
		Books:     book.NewSQLiteBookRepository(db),
		Listings:  listing.NewSQLiteListingRepository(db),
		Users:     user.NewSQLiteUserRepository(db),
		Log:       logging.NewNopLogger(),
		Validator: validation.New(),
	}
}

func createUser(t *testing.T, svc *listingsvc.ListingService, username, firstName string) domain.ID {
	t.Helper()

	u := &domain.User{
		Username:     username,
		FirstName:    firstName,
		Email:        username + "@gmail.com",
		PasswordHash: []byte("hash"),
	}
	require.NoError(t, svc.Users.CreateUser(context.Background(), u))

	return u.ID
}

// missingBooks loses every book it is asked for by id.
type missingBooks struct {
	book.Repository
}

func (missingBooks) GetBookByID(context.Context, domain.ID) (*domain.Book, bool, error) {
	return nil, false, nil
}

func dune() listingsvc.AddListingRequest {
	return listingsvc.AddListingRequest{
		Title:     "Dune",
		Author:    "Herbert",
		Page:      412,
		Condition: "good",
		Location:  "Sydney",
	}
}

func TestListingService_AddBookToListing(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, svc, "alice", "Alice")
	bob := createUser(t, svc, "bobby", "Bob")

	first, err := svc.AddBookToListing(ctx, alice, dune())
	require.NoError(t, err)
	require.NotNil(t, first.Book.IsCreated)
	assert.True(t, *first.Book.IsCreated)
	assert.Equal(t, alice, first.Book.CreatorID)
	assert.Equal(t, 412, first.Book.Page)
	assert.Equal(t, domain.AvailabilityAvailable, first.Listing.Availability)
	assert.Equal(t, domain.ConditionGood, first.Listing.Condition)

	_, err = svc.AddBookToListing(ctx, alice, dune())
	require.ErrorIs(t, err, domain.ErrAlreadyListed)

	req := dune()
	req.Condition = "used"
	req.Location = "Perth"
	req.Page = 999

	second, err := svc.AddBookToListing(ctx, bob, req)
	require.NoError(t, err)
	require.NotNil(t, second.Book.IsCreated)
	assert.False(t, *second.Book.IsCreated)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.Equal(t, 412, second.Book.Page, "existing book must not be changed by another lender")
	assert.NotEqual(t, first.Listing.ID, second.Listing.ID)
}

func TestListingService_AddBookToListingConcurrent(t *testing.T) {
	t.Parallel()

	const lenders = 8

	svc := newTestService(t)
	ctx := context.Background()

	ids := make([]domain.ID, lenders)
	for i := range ids {
		ids[i] = createUser(t, svc, fmt.Sprintf("lender%d", i), "Lender")
	}

	type result struct {
		lender domain.ID
		view   domain.BookListingView
		err    error
	}

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make(chan result, 2*lenders)
	)

	for _, lender := range ids {
		for range 2 {
			wg.Add(1)

			go func() {
				defer wg.Done()
				<-start

				view, err := svc.AddBookToListing(ctx, lender, dune())
				results <- result{lender: lender, view: view, err: err}
			}()
		}
	}

	close(start)
	wg.Wait()
	close(results)

	bookIDs := make(map[domain.ID]struct{})
	added := make(map[domain.ID]int)

	for r := range results {
		if r.err != nil {
			require.ErrorIs(t, r.err, domain.ErrAlreadyListed)

			continue
		}

		bookIDs[r.view.Book.ID] = struct{}{}
		added[r.lender]++
	}

	assert.Len(t, bookIDs, 1)
	require.Len(t, added, lenders)

	for _, lender := range ids {
		assert.Equal(t, 1, added[lender])

		listings, err := svc.LenderListings(ctx, lender)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Contains(t, bookIDs, listings[0].Book.ID)
	}
}

func TestListingService_AddBookToListingValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	alice := createUser(t, svc, "alice", "Alice")

	_, err := svc.AddBookToListing(context.Background(), alice, listingsvc.AddListingRequest{
		Title:       "Dune",
		ReleaseYear: 1600,
		Condition:   "mint",
	})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{
		"Author is required.",
		"Release year must be at least 1700.",
		"Condition must be one of: new, good, acceptable, used.",
		"Location is required.",
	}, validationErr.Messages)
}

func TestListingService_UpdateBookAndListing(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, svc, "alice", "Alice")
	bob := createUser(t, svc, "bobby", "Bob")

	aliceDune, err := svc.AddBookToListing(ctx, alice, dune())
	require.NoError(t, err)

	bobDune, err := svc.AddBookToListing(ctx, bob, dune())
	require.NoError(t, err)

	bookID := aliceDune.Book.ID

	t.Run("creator updates book and listing", func(t *testing.T) {
		view, err := svc.UpdateBookAndListing(ctx, alice, bookID, aliceDune.Listing.ID, listingsvc.UpdateListingRequest{
			ReleaseYear:  ptr(1965),
			Availability: ptr("borrowed"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1965, view.Book.ReleaseYear)
		assert.True(t, *view.Book.IsCreated)
		assert.Equal(t, domain.AvailabilityBorrowed, view.Listing.Availability)
		assert.Equal(t, "Sydney", view.Listing.Location)
	})

	t.Run("book half is skipped for other lenders", func(t *testing.T) {
		view, err := svc.UpdateBookAndListing(ctx, bob, bookID, bobDune.Listing.ID, listingsvc.UpdateListingRequest{
			Page:     ptr(1),
			Location: ptr("Melbourne"),
		})
		require.NoError(t, err)
		assert.Equal(t, 412, view.Book.Page)
		assert.False(t, *view.Book.IsCreated)
		assert.Equal(t, "Melbourne", view.Listing.Location)

		stored, err := svc.GetBook(ctx, bookID)
		require.NoError(t, err)
		assert.Equal(t, 412, stored.Page)
	})

	t.Run("listing of another lender", func(t *testing.T) {
		_, err := svc.UpdateBookAndListing(ctx, bob, bookID, aliceDune.Listing.ID, listingsvc.UpdateListingRequest{
			Condition: ptr("used"),
		})
		require.ErrorIs(t, err, domain.ErrListingNotFoundOrUnauthorized)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := svc.UpdateBookAndListing(ctx, alice, domain.NewID(), aliceDune.Listing.ID, listingsvc.UpdateListingRequest{})
		require.ErrorIs(t, err, domain.ErrBookNotFoundOrUnauthorized)
	})

	t.Run("empty value", func(t *testing.T) {
		_, err := svc.UpdateBookAndListing(ctx, alice, bookID, aliceDune.Listing.ID, listingsvc.UpdateListingRequest{
			Title: ptr(""),
		})

		var emptyErr *domain.EmptyValueError
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, "The title can not be empty!", emptyErr.Error())
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := svc.UpdateBookAndListing(ctx, alice, bookID, aliceDune.Listing.ID, listingsvc.UpdateListingRequest{
			Availability: ptr("lost"),
		})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("title clash", func(t *testing.T) {
		_, err := svc.AddBookToListing(ctx, alice, listingsvc.AddListingRequest{
			Title: "It", Author: "Stephen King", Condition: "new", Location: "Sydney",
		})
		require.NoError(t, err)

		_, err = svc.UpdateBookAndListing(ctx, alice, bookID, aliceDune.Listing.ID, listingsvc.UpdateListingRequest{
			Title:  ptr("It"),
			Author: ptr("Stephen King"),
		})
		require.ErrorIs(t, err, domain.ErrBookAlreadyExists)
	})
}

func TestListingService_DeleteListing(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, svc, "alice", "Alice")
	bob := createUser(t, svc, "bobby", "Bob")

	view, err := svc.AddBookToListing(ctx, alice, dune())
	require.NoError(t, err)

	err = svc.DeleteListing(ctx, bob, view.Listing.ID)
	require.ErrorIs(t, err, domain.ErrListingNotFoundOrUnauthorized)

	require.NoError(t, svc.DeleteListing(ctx, alice, view.Listing.ID))

	err = svc.DeleteListing(ctx, alice, view.Listing.ID)
	require.ErrorIs(t, err, domain.ErrListingNotFoundOrUnauthorized)

	listings, err := svc.LenderListings(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestListingService_LenderListings(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, svc, "alice", "Alice")
	bob := createUser(t, svc, "bobby", "Bob")

	_, err := svc.AddBookToListing(ctx, bob, dune())
	require.NoError(t, err)

	_, err = svc.AddBookToListing(ctx, alice, dune())
	require.NoError(t, err)

	_, err = svc.AddBookToListing(ctx, alice, listingsvc.AddListingRequest{
		Title: "It", Author: "Stephen King", Condition: "new", Location: "Perth",
	})
	require.NoError(t, err)

	listings, err := svc.LenderListings(ctx, alice)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "Dune", listings[0].Book.Title)
	assert.False(t, *listings[0].Book.IsCreated)
	assert.Equal(t, "It", listings[1].Book.Title)
	assert.True(t, *listings[1].Book.IsCreated)
	assert.Equal(t, "Perth", listings[1].Listing.Location)

	none, err := svc.LenderListings(ctx, createUser(t, svc, "carol", "Carol"))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	svc.Books = missingBooks{svc.Books}

	_, err = svc.LenderListings(ctx, alice)
	require.ErrorIs(t, err, domain.ErrDanglingListing)
	require.NotErrorIs(t, err, domain.ErrBookNotFound)
}

func TestListingService_SearchListings(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, svc, "alice", "Alice")
	bob := createUser(t, svc, "bobby", "Bob")

	add := func(lender domain.ID, title, author, condition, location string) {
		t.Helper()

		_, err := svc.AddBookToListing(ctx, lender, listingsvc.AddListingRequest{
			Title: title, Author: author, Condition: condition, Location: location,
		})
		require.NoError(t, err)
	}

	add(alice, "Never Lie", "Freida McFadden", "used", "Sydney")
	add(bob, "Never Lie", "Freida McFadden", "good", "Brisbane")
	add(alice, "100% Dune_", "Herbert", "new", "Sydney")

	tests := []struct {
		name         string
		req          listingsvc.SearchRequest
		wantTitle    string
		wantLenders  []string
		wantErr      error
		wantLocation []string
	}{
		{
			name:         "title prefix ignoring case",
			req:          listingsvc.SearchRequest{Title: "never"},
			wantTitle:    "Never Lie",
			wantLenders:  []string{"Alice", "Bob"},
			wantLocation: []string{"Sydney", "Brisbane"},
		},
		{
			name:         "location prefix",
			req:          listingsvc.SearchRequest{Title: "Never", Location: "bris"},
			wantTitle:    "Never Lie",
			wantLenders:  []string{"Bob"},
			wantLocation: []string{"Brisbane"},
		},
		{
			name:         "condition",
			req:          listingsvc.SearchRequest{Title: "Never", Author: "freida", Condition: "used"},
			wantTitle:    "Never Lie",
			wantLenders:  []string{"Alice"},
			wantLocation: []string{"Sydney"},
		},
		{
			name:         "wildcards are literal",
			req:          listingsvc.SearchRequest{Title: "100% Dune_"},
			wantTitle:    "100% Dune_",
			wantLenders:  []string{"Alice"},
			wantLocation: []string{"Sydney"},
		},
		{
			name:    "wildcard does not match",
			req:     listingsvc.SearchRequest{Title: "%"},
			wantErr: domain.ErrBookNotFound,
		},
		{
			name:    "unknown author",
			req:     listingsvc.SearchRequest{Title: "Never", Author: "King"},
			wantErr: domain.ErrBookNotFound,
		},
		{
			name:    "no matching listings",
			req:     listingsvc.SearchRequest{Title: "Never", Location: "Perth"},
			wantErr: domain.ErrListingsNotFound,
		},
		{
			name:    "title is required",
			req:     listingsvc.SearchRequest{Author: "Herbert"},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := svc.SearchListings(ctx, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, result.Book.Title)
			assert.Nil(t, result.Book.IsCreated)

			var lenders, locations []string
			for _, l := range result.Listings {
				lenders = append(lenders, l.Lender.FirstName)
				locations = append(locations, l.Location)
			}

			assert.Equal(t, tt.wantLenders, lenders)
			assert.Equal(t, tt.wantLocation, locations)
		})
	}
}

func TestListingService_GetBook(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	alice := createUser(t, svc, "alice", "Alice")

	view, err := svc.AddBookToListing(ctx, alice, dune())
	require.NoError(t, err)

	got, err := svc.GetBook(ctx, view.Book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Nil(t, got.IsCreated)

	_, err = svc.GetBook(ctx, domain.NewID())
	require.ErrorIs(t, err, domain.ErrBookNotFound)
}
