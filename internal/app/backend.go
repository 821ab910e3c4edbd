package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/internal/storage/sqlite"
)

// backend bundles the storage-backed dependencies of the server.
type backend struct {
	storage  persist.Storage
	products product.Repository
	promos   promo.Repository
	closers  []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the configured snapshot storage. The catalog and
// promo rules live in PostgreSQL when a database URL is configured and in
// memory otherwise.
func openBackend(ctx context.Context, lg *zap.Logger, cfg *Config) (_ *backend, rerr error) {
	b := &backend{}
	defer func() {
		if rerr != nil {
			b.close()
		}
	}()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		b.closers = append(b.closers, p.Close)
		if err := postgres.RunMigrations(ctx, p); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		pool = p
		b.products = postgres.NewProductRepository(pool)
		b.promos = postgres.NewPromoRepository(pool)
	} else {
		lg.Warn("No database configured, serving an empty in-memory catalog")
		b.products = product.NewMemoryRepository()
		b.promos = promo.NewMemoryRepository()
	}

	switch cfg.Storage.Backend {
	case BackendMemory:
		b.storage = persist.NewMemoryStorage()
	case BackendPostgres:
		if pool == nil {
			return nil, errors.New("postgres storage requires a database URL")
		}
		b.storage = postgres.NewStateStorage(pool)
	case BackendRedis:
		client, err := redis.NewClient(cfg.Storage.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "create redis client")
		}
		b.closers = append(b.closers, func() {
			if err := client.Close(); err != nil {
				lg.Warn("Close redis client", zap.Error(err))
			}
		})
		b.storage = redis.New(client, cfg.Storage.RedisPrefix, cfg.Storage.RedisTTL)
	case BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		b.closers = append(b.closers, func() {
			if err := s.Close(); err != nil {
				lg.Warn("Close sqlite", zap.Error(err))
			}
		})
		b.storage = s
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if err := b.storage.Ping(ctx); err != nil {
		return nil, errors.Wrapf(err, "ping %s storage", cfg.Storage.Backend)
	}
	return b, nil
}
