package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrupp/bookswap/internal/infra/logging"
	"github.com/mkrupp/bookswap/internal/infra/transport/http"
	"github.com/mkrupp/bookswap/internal/repo"
	"github.com/mkrupp/bookswap/internal/svc/authsvc"
	"github.com/mkrupp/bookswap/internal/svc/listingsvc"
)

func newServeCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}
}

func serve(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.bookswap")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	return withStore(ctx, cfg.DB, func(store *repo.Store) error {
		authSvc, err := authsvc.NewAuthService(store.Users, cfg.Auth)
		if err != nil {
			return fmt.Errorf("new auth service: %w", err)
		}

		listingSvc := listingsvc.NewListingService(store.Books, store.Listings, store.Users)
		metrics := http.NewMetrics(appName)

		router := http.NewRouter(metrics,
			authsvc.NewHTTPTransport(authSvc),
			listingsvc.NewHTTPTransport(listingSvc, authSvc),
		)

		if err := http.ListenAndServe(ctx, router, metrics, cfg.HTTP); err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}

		return nil
	})
}
