package main

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/storage/postgres"
)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	lg          *zap.Logger
	databaseURL string
}

func newRootCmd(lg *zap.Logger) *cobra.Command {
	opts := &rootOptions{lg: lg}

	root := &cobra.Command{
		Use:           "storefront-admin",
		Short:         "Operator tooling for the storefront catalog and promo codes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "",
		"PostgreSQL connection URL (or DATABASE_URL env)")

	root.AddCommand(
		newSeedCatalogCmd(opts),
		newIngestPromosCmd(opts),
	)
	return root
}

// connect opens the database and applies migrations.
func (o *rootOptions) connect(ctx context.Context) (*pgxpool.Pool, error) {
	url := o.databaseURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return nil, errors.New("database URL is required: set --database-url or DATABASE_URL")
	}

	o.lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return pool, nil
}
