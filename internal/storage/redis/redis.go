// Package redis implements persist.Storage on Redis.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/storefront/internal/persist"
)

var _ persist.Storage = (*Storage)(nil)

// Storage keeps snapshots as plain string values under prefix:key.
type Storage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewClient parses a redis:// URL and creates a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return redis.NewClient(opts), nil
}

// New returns a Storage using client. A positive ttl expires keys that have
// not been written for that long; zero keeps them forever.
func New(client *redis.Client, prefix string, ttl time.Duration) *Storage {
	return &Storage{client: client, prefix: prefix, ttl: ttl}
}

func (s *Storage) prefixKey(key string) string {
	if s.prefix == "" {
		return key
	}
	var b strings.Builder
	b.Grow(len(s.prefix) + 1 + len(key))
	b.WriteString(s.prefix)
	b.WriteString(":")
	b.WriteString(key)
	return b.String()
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persist.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return v, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefixKey(key), value, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefixKey(key)).Err(); err != nil {
		return errors.Wrapf(err, "del %q", key)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
