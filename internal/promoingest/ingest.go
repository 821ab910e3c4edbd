// Package promoingest extracts valid promo codes from large code lists.
//
// A code is valid when it appears in at least MinFiles of the input lists.
// The lists are too large to hold in memory, so they are scanned twice: the
// first pass builds one bloom filter per file, the second pass keeps the
// codes that another file's filter reports and counts the files exactly.
package promoingest

import (
	"bufio"
	"context"
	"io"
	"math/bits"
	"os"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config controls an ingest run.
type Config struct {
	// Files are plain or gzip-compressed (".gz") lists with one code per line.
	Files []string
	// MinFiles is the number of files a code must appear in. Defaults to 2.
	MinFiles int
	// MinLen and MaxLen bound the accepted code length. Default to 8 and 10.
	MinLen, MaxLen int
	// BloomCapacity and BloomFPR size the per-file filters.
	BloomCapacity uint
	BloomFPR      float64
	// ProgressEvery logs scan progress every n codes. Zero disables it.
	ProgressEvery uint64
}

func (c *Config) setDefaults() {
	if c.MinFiles <= 0 {
		c.MinFiles = 2
	}
	if c.MinLen <= 0 {
		c.MinLen = 8
	}
	if c.MaxLen <= 0 {
		c.MaxLen = 10
	}
	if c.BloomCapacity == 0 {
		c.BloomCapacity = 120_000_000
	}
	if c.BloomFPR <= 0 {
		c.BloomFPR = 0.001
	}
}

// ValidCodes returns the sorted codes found in at least cfg.MinFiles files.
func ValidCodes(ctx context.Context, lg *zap.Logger, cfg Config) ([]string, error) {
	cfg.setDefaults()
	if len(cfg.Files) > bits.UintSize {
		return nil, errors.Errorf("at most %d files are supported", bits.UintSize)
	}
	if len(cfg.Files) < cfg.MinFiles {
		return nil, errors.Errorf("need at least %d files, got %d", cfg.MinFiles, len(cfg.Files))
	}
	for _, f := range cfg.Files {
		if _, err := os.Stat(f); err != nil {
			return nil, errors.Wrapf(err, "check file %s", f)
		}
	}

	s := &scanner{cfg: cfg, lg: lg}

	lg.Info("Pass 1: building bloom filters", zap.Int("files", len(cfg.Files)))
	filters, err := s.buildFilters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	lg.Info("Pass 2: finding candidate codes")
	masks, err := s.findCandidates(ctx, filters)
	if err != nil {
		return nil, errors.Wrap(err, "find candidates")
	}

	merged := make(map[string]uint)
	for _, m := range masks {
		for code, mask := range m {
			merged[code] |= mask
		}
	}
	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= cfg.MinFiles {
			valid = append(valid, code)
		}
	}
	slices.Sort(valid)

	lg.Info("Valid codes found", zap.Int("count", len(valid)))
	return valid, nil
}

type scanner struct {
	cfg Config
	lg  *zap.Logger
}

func (s *scanner) accept(code string) bool {
	return len(code) >= s.cfg.MinLen && len(code) <= s.cfg.MaxLen
}

func (s *scanner) buildFilters(ctx context.Context) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(s.cfg.Files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range s.cfg.Files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(s.cfg.BloomCapacity, s.cfg.BloomFPR)
			n, err := s.stream(ctx, path, 1, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			s.lg.Info("Pass 1 complete", zap.Int("file", i+1), zap.Uint64("codes", n))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findCandidates returns, per file, the codes of that file that at least one
// other file's filter contains, mapped to the file's bit.
func (s *scanner) findCandidates(ctx context.Context, filters []*bloom.BloomFilter) ([]map[string]uint, error) {
	results := make([]map[string]uint, len(s.cfg.Files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range s.cfg.Files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			bit := uint(1) << uint(i)
			_, err := s.stream(ctx, path, 2, func(code string) {
				for j, f := range filters {
					if j != i && f.TestString(code) {
						candidates[code] |= bit
						return
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			s.lg.Info("Pass 2 complete", zap.Int("file", i+1), zap.Int("candidates", len(candidates)))
			results[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// stream calls fn for every accepted code of path and returns their number.
func (s *scanner) stream(ctx context.Context, path string, pass int, fn func(code string)) (uint64, error) {
	rc, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	var n uint64
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		code := strings.TrimSpace(sc.Text())
		if !s.accept(code) {
			continue
		}
		fn(code)
		n++
		if s.cfg.ProgressEvery > 0 && n%s.cfg.ProgressEvery == 0 {
			s.lg.Info("Scan progress",
				zap.Int("pass", pass),
				zap.String("file", path),
				zap.Uint64("codes", n),
			)
		}
	}
	if err := sc.Err(); err != nil {
		return n, errors.Wrapf(err, "scan %s", path)
	}
	return n, nil
}

// Open opens path for reading, decompressing it when it ends in ".gz".
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}
