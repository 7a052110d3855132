package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	"github.com/mkrupp/bookswap/internal/repo"
	"github.com/mkrupp/bookswap/internal/svc/authsvc"
	"github.com/mkrupp/bookswap/internal/svc/listingsvc"
)

//nolint:gochecknoglobals
var seedUsers = []authsvc.JoinRequest{
	{Username: "testUser", FirstName: "User", Email: "user@gmail.com", Password: "123456"},
	{Username: "kriszta", FirstName: "Kriszta", Email: "kriszta@gmail.com", Password: "123456"},
	{Username: "jozsef", FirstName: "Jozsef", Email: "jozsef@gmail.com", Password: "123456"},
	{Username: "jennifer", FirstName: "Jennifer", Email: "jennifer@gmail.com", Password: "123456"},
}

//nolint:gochecknoglobals
var seedBooks = []listingsvc.AddListingRequest{
	{
		ImgURL:      "https://covers.openlibrary.org/b/id/11291394-L.jpg",
		Title:       "A game of thrones",
		Author:      "George R. R. Martin",
		Page:        704,
		ReleaseYear: 2001,
	},
	{
		ImgURL:      "https://covers.openlibrary.org/b/id/11943330-L.jpg",
		Title:       "It",
		Author:      "Stephen King",
		Page:        1168,
		ReleaseYear: 1986,
	},
	{
		ImgURL:      "https://covers.openlibrary.org/b/id/12324374-L.jpg",
		Title:       "A little life",
		Author:      "Hanya Yanagihara",
		Page:        720,
		ReleaseYear: 2015,
	},
	{
		ImgURL:      "https://covers.openlibrary.org/b/id/13198561-L.jpg",
		Title:       "Never Lie",
		Author:      "Freida McFadden",
		Page:        268,
		ReleaseYear: 2022,
	},
}

// seedListing refers to seedBooks and seedUsers by index. The first listing
// of each book is its creator's.
type seedListing struct {
	book, lender int
	availability domain.Availability
	condition    domain.Condition
	location     string
}

//nolint:gochecknoglobals
var seedListings = []seedListing{
	{0, 0, domain.AvailabilityAvailable, domain.ConditionNew, "Brisbane"},
	{1, 1, domain.AvailabilityBorrowed, domain.ConditionGood, "Melbourne"},
	{2, 2, domain.AvailabilityAvailable, domain.ConditionAcceptable, "Sydney"},
	{3, 3, domain.AvailabilityAvailable, domain.ConditionUsed, "Sydney"},
	{3, 0, domain.AvailabilityAvailable, domain.ConditionGood, "Sydney"},
	{3, 1, domain.AvailabilityAvailable, domain.ConditionGood, "Sydney"},
	{2, 0, domain.AvailabilityAvailable, domain.ConditionNew, "Sydney"},
	{2, 1, domain.AvailabilityAvailable, domain.ConditionNew, "Brisbane"},
	{1, 2, domain.AvailabilityAvailable, domain.ConditionGood, "Perth"},
	{1, 3, domain.AvailabilityAvailable, domain.ConditionUsed, "Cairns"},
	{0, 1, domain.AvailabilityAvailable, domain.ConditionGood, "Brisbane"},
	{0, 2, domain.AvailabilityAvailable, domain.ConditionUsed, "Melbourne"},
}

func newSeedCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all data with the demo users, books and listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), cfg.DB, func(store *repo.Store) error {
				return seed(cmd.Context(), store, cfg.Auth)
			})
		},
	}
}

func seed(ctx context.Context, store *repo.Store, authCfg authsvc.AuthConfig) error {
	log := logging.GetLogger("cmd.bookswap.seed")

	authSvc, err := authsvc.NewAuthService(store.Users, authCfg)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	listingSvc := listingsvc.NewListingService(store.Books, store.Listings, store.Users)

	if err := store.Reset(ctx); err != nil {
		return err //nolint:wrapcheck
	}

	log.InfoContext(ctx, "deleted all users, books and listings")

	userIDs := make([]domain.ID, 0, len(seedUsers))

	for _, req := range seedUsers {
		if _, err := authSvc.Join(ctx, req); err != nil {
			return fmt.Errorf("join %s: %w", req.Username, err)
		}

		joined, _, err := store.Users.GetUserByUsername(ctx, req.Username)
		if err != nil {
			return fmt.Errorf("get user %s: %w", req.Username, err)
		}

		userIDs = append(userIDs, joined.ID)
	}

	log.InfoContext(ctx, "users inserted", "count", len(userIDs))

	for _, l := range seedListings {
		req := seedBooks[l.book]
		req.Condition = string(l.condition)
		req.Location = l.location

		view, err := listingSvc.AddBookToListing(ctx, userIDs[l.lender], req)
		if err != nil {
			return fmt.Errorf("list %q: %w", req.Title, err)
		}

		if l.availability == view.Listing.Availability {
			continue
		}

		availability := string(l.availability)

		if _, err := listingSvc.UpdateBookAndListing(ctx, userIDs[l.lender], view.Book.ID, view.Listing.ID,
			listingsvc.UpdateListingRequest{Availability: &availability}); err != nil {
			return fmt.Errorf("update %q: %w", req.Title, err)
		}
	}

	log.InfoContext(ctx, "books and listings inserted", "listings", len(seedListings))

	return nil
}
