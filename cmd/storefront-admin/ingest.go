package main

import (
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/promoingest"
	"github.com/xenking/storefront/internal/storage/postgres"
)

func newIngestPromosCmd(opts *rootOptions) *cobra.Command {
	var (
		cfg       promoingest.Config
		dataDir   string
		batchSize int
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "ingest-promos [files...]",
		Short: "Import promo codes that appear in several code lists",
		Long: `Scans the given code lists (one code per line, optionally gzip-compressed)
and upserts every code found in at least --min-files lists as a promo code.
Without arguments, every *.gz file in --data-dir is scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lg := opts.lg

			cfg.Files = args
			if len(cfg.Files) == 0 {
				matches, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
				if err != nil {
					return errors.Wrap(err, "list data dir")
				}
				cfg.Files = matches
			}

			codes, err := promoingest.ValidCodes(ctx, lg, cfg)
			if err != nil {
				return err
			}
			if len(codes) == 0 || dryRun {
				lg.Info("Nothing to write", zap.Int("codes", len(codes)), zap.Bool("dry_run", dryRun))
				return nil
			}

			pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.NewPromoRepository(pool).Upsert(ctx, promoingest.Rules(codes), batchSize); err != nil {
				return errors.Wrap(err, "write promo codes")
			}
			lg.Info("Promo codes written", zap.Int("count", len(codes)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dataDir, "data-dir", "data", "Directory with *.gz code lists")
	f.IntVar(&cfg.MinFiles, "min-files", 2, "Number of lists a code must appear in")
	f.IntVar(&cfg.MinLen, "min-len", 8, "Minimum code length")
	f.IntVar(&cfg.MaxLen, "max-len", 10, "Maximum code length")
	f.UintVar(&cfg.BloomCapacity, "bloom-capacity", 120_000_000, "Expected codes per list")
	f.Float64Var(&cfg.BloomFPR, "bloom-fpr", 0.001, "Bloom filter false positive rate")
	f.Uint64Var(&cfg.ProgressEvery, "progress-every", 10_000_000, "Log progress every n codes")
	f.IntVar(&batchSize, "batch-size", 1000, "Rows per upsert batch")
	f.BoolVar(&dryRun, "dry-run", false, "Find codes without writing")
	return cmd
}
