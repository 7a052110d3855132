package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkrupp/bookswap/internal/infra/config"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	"github.com/mkrupp/bookswap/internal/infra/transport/http"
	"github.com/mkrupp/bookswap/internal/repo"
	"github.com/mkrupp/bookswap/internal/svc/authsvc"
)

const (
	appName = "bookswap"
	svcName = "api"
)

// Config is read from BOOKSWAP_API_* environment variables.
type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig     `envPrefix:"LOG_"`
	Auth authsvc.AuthConfig       `envPrefix:"AUTH_"`
	HTTP http.HTTPTransportConfig `envPrefix:"HTTP_"`
	DB   repo.Config              `envPrefix:"DB_"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		cfg     Config
		envFile string

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	root := &cobra.Command{
		Use:           appName,
		Short:         "Book lending marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}

			if err := config.Parse(cmd.Context(), &cfg, configPrefix); err != nil {
				return fmt.Errorf("parse config: %w", err)
			}

			logging.Configure(cmd.Context(), cfg.Log, loggerName)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newServeCommand(&cfg),
		newSeedCommand(&cfg),
	)

	return root
}

// withStore opens the configured store, passes it to fn and closes it afterwards.
func withStore(ctx context.Context, cfg repo.Config, fn func(store *repo.Store) error) (err error) {
	store, err := repo.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(store)
}
