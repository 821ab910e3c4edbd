package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/persist"
)

func TestStorage(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(ctx))

	_, err = s.Get(ctx, "abc:cart")
	require.ErrorIs(t, err, persist.ErrNotFound)

	require.NoError(t, s.Put(ctx, "abc:cart", []byte(`{"v":1,"items":[]}`)))
	require.NoError(t, s.Put(ctx, "abc:cart", []byte(`{"v":1,"items":[1]}`)))

	got, err := s.Get(ctx, "abc:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"items":[1]}`, string(got))

	require.NoError(t, s.Delete(ctx, "abc:cart"))
	require.NoError(t, s.Delete(ctx, "abc:cart"))
	_, err = s.Get(ctx, "abc:cart")
	require.ErrorIs(t, err, persist.ErrNotFound)
}

func TestStorage_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
