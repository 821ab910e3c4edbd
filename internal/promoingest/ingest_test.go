package promoingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/storefront/internal/domain/promo"
)

func writeList(t *testing.T, dir, name string, codes ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := []byte(strings.Join(codes, "\n") + "\n")

	if !strings.HasSuffix(name, ".gz") {
		require.NoError(t, os.WriteFile(path, data, 0o600))
		return path
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func testConfig(files ...string) Config {
	return Config{
		Files:         files,
		BloomCapacity: 1000,
		BloomFPR:      0.0001,
		ProgressEvery: 1,
	}
}

func TestValidCodes(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeList(t, dir, "a.gz", "HAPPYHRS", "ONLYINAA", "SHARED01", "short", "WAYTOOLONGCODE"),
		writeList(t, dir, "b.gz", "SHARED01", "ONLYINBB", "FIFTYOFF"),
		writeList(t, dir, "c.txt", "HAPPYHRS", "FIFTYOFF", "ONLYINCC", "  SHARED01  "),
	}

	codes, err := ValidCodes(t.Context(), zaptest.NewLogger(t), testConfig(files...))
	require.NoError(t, err)
	assert.Equal(t, []string{"FIFTYOFF", "HAPPYHRS", "SHARED01"}, codes)
}

func TestValidCodes_MinFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeList(t, dir, "a.gz", "INALLTHR", "INTWOFIL"),
		writeList(t, dir, "b.gz", "INALLTHR", "INTWOFIL"),
		writeList(t, dir, "c.gz", "INALLTHR"),
	}
	cfg := testConfig(files...)
	cfg.MinFiles = 3

	codes, err := ValidCodes(t.Context(), zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"INALLTHR"}, codes)
}

func TestValidCodes_Errors(t *testing.T) {
	dir := t.TempDir()
	one := writeList(t, dir, "a.gz", "SHARED01")

	_, err := ValidCodes(t.Context(), zaptest.NewLogger(t), testConfig(one))
	assert.ErrorContains(t, err, "need at least 2 files")

	_, err = ValidCodes(t.Context(), zaptest.NewLogger(t), testConfig(one, filepath.Join(dir, "missing.gz")))
	assert.ErrorContains(t, err, "missing.gz")

	bad := filepath.Join(dir, "bad.gz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0o600))
	_, err = ValidCodes(t.Context(), zaptest.NewLogger(t), testConfig(one, bad))
	assert.ErrorContains(t, err, "gzip")
}

func TestValidCodes_Cancelled(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeList(t, dir, "a.gz", "SHARED01"),
		writeList(t, dir, "b.gz", "SHARED01"),
	}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := ValidCodes(ctx, zaptest.NewLogger(t), testConfig(files...))
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	rules := Rules([]string{"BUYGETON", "RANDOM01"})
	require.Len(t, rules, 2)

	assert.Equal(t, "BUYGETON", rules[0].Code)
	assert.Equal(t, promo.DiscountFreeLowest, rules[0].DiscountType)
	assert.Equal(t, 2, rules[0].MinItems)

	assert.Equal(t, "RANDOM01", rules[1].Code)
	assert.Equal(t, Default.DiscountType, rules[1].DiscountType)
	assert.True(t, Default.Value.Equal(rules[1].Value))
}
