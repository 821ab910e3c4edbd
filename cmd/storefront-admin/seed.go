package main

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalogseed"
	"github.com/xenking/storefront/internal/storage/postgres"
)

func newSeedCatalogCmd(opts *rootOptions) *cobra.Command {
	var (
		file       string
		withPromos bool
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Upsert the product catalog from a JSON (optionally .gz) file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			lg := opts.lg

			products, err := catalogseed.Load(file)
			if err != nil {
				return errors.Wrap(err, "load catalog")
			}
			lg.Info("Catalog loaded", zap.String("file", file), zap.Int("products", len(products)))
			if dryRun {
				return nil
			}

			pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
				return errors.Wrap(err, "seed products")
			}
			lg.Info("Products upserted", zap.Int("count", len(products)))

			if withPromos {
				rules := catalogseed.Promos()
				if err := postgres.NewPromoRepository(pool).Upsert(ctx, rules, len(rules)); err != nil {
					return errors.Wrap(err, "seed promos")
				}
				lg.Info("Promo codes upserted", zap.Int("count", len(rules)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "db/seed/products.json", "Catalog file")
	cmd.Flags().BoolVar(&withPromos, "with-promos", true, "Also seed the default promo codes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")
	return cmd
}
