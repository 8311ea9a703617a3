package main

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/wildgarden/internal/domain/discount"
)

const (
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// codeStore is implemented by *postgres.DiscountCodeRepository.
type codeStore interface {
	AllCodes(ctx context.Context, fn func(code string)) error
	FindByCode(ctx context.Context, code string) (*discount.Code, error)
	InsertMissing(ctx context.Context, codes []discount.Code) (int64, error)
}

// stats summarizes an import run.
type stats struct {
	Lines      int64
	Invalid    int64
	Duplicates int64
	Existing   int64
	Inserted   int64
}

type importer struct {
	store     codeStore
	lg        *zap.Logger
	batchSize int
	capacity  uint
	now       func() time.Time
}

// Run reads every file concurrently and inserts codes that are not stored
// yet. Existing codes are never modified.
func (imp *importer) Run(ctx context.Context, files []string) (stats, error) {
	var st stats
	if imp.batchSize <= 0 {
		imp.batchSize = 1000
	}
	if imp.capacity == 0 {
		imp.capacity = 1_000_000
	}
	if imp.now == nil {
		imp.now = time.Now
	}

	existing, err := imp.loadExisting(ctx)
	if err != nil {
		return st, err
	}

	g, gctx := errgroup.WithContext(ctx)
	codes := make(chan discount.Code, imp.batchSize)

	var lines, invalid atomic.Int64
	readers, rctx := errgroup.WithContext(gctx)
	for _, path := range files {
		readers.Go(func() error {
			return streamGzFile(rctx, path, func(line string) error {
				if n := lines.Add(1); n%progressEvery == 0 {
					imp.lg.Info("Read progress", zap.Int64("lines", n))
				}
				c, ok, err := parseLine(line)
				if err != nil {
					invalid.Add(1)
					imp.lg.Debug("Invalid line", zap.String("file", path), zap.Error(err))
					return nil
				}
				if !ok {
					return nil
				}
				select {
				case codes <- c:
					return nil
				case <-rctx.Done():
					return rctx.Err()
				}
			})
		})
	}
	g.Go(func() error {
		defer close(codes)
		return readers.Wait()
	})
	g.Go(func() error {
		return imp.write(gctx, existing, codes, &st)
	})

	err = g.Wait()
	st.Lines = lines.Load()
	st.Invalid = invalid.Load()
	return st, err
}

func (imp *importer) loadExisting(ctx context.Context) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(imp.capacity, bloomFPR)
	var n int
	if err := imp.store.AllCodes(ctx, func(code string) {
		filter.AddString(code)
		n++
	}); err != nil {
		return nil, errors.Wrap(err, "load existing codes")
	}
	imp.lg.Info("Loaded existing codes", zap.Int("count", n))
	return filter, nil
}

// write consumes codes, skips stored and repeated ones and inserts the rest
// in batches. A bloom hit is confirmed with an exact lookup.
func (imp *importer) write(ctx context.Context, existing *bloom.BloomFilter, codes <-chan discount.Code, st *stats) error {
	seen := make(map[string]struct{})
	batch := make([]discount.Code, 0, imp.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := imp.store.InsertMissing(ctx, batch)
		if err != nil {
			return errors.Wrap(err, "insert codes")
		}
		st.Inserted += n
		st.Existing += int64(len(batch)) - n
		imp.lg.Info("Inserted batch", zap.Int64("inserted", n), zap.Int64("total", st.Inserted))
		batch = batch[:0]
		return nil
	}

	for c := range codes {
		if _, dup := seen[c.Code]; dup {
			st.Duplicates++
			continue
		}
		seen[c.Code] = struct{}{}

		if existing.TestString(c.Code) {
			_, err := imp.store.FindByCode(ctx, c.Code)
			switch {
			case err == nil:
				st.Existing++
				continue
			case !errors.Is(err, discount.ErrNotFound):
				return errors.Wrapf(err, "look up code %s", c.Code)
			}
		}

		now := imp.now()
		c.CreatedAt, c.UpdatedAt = now, now
		batch = append(batch, c)
		if len(batch) == imp.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// parseLine parses CODE,PERCENT[,START[,END]]. Blank lines and lines starting
// with # are skipped (ok is false).
func parseLine(line string) (c discount.Code, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return c, false, nil
	}
	fields := strings.Split(line, ",")
	if len(fields) < 2 || len(fields) > 4 {
		return c, false, errors.Errorf("expected 2 to 4 fields, got %d", len(fields))
	}

	c.Code = discount.Normalize(fields[0])
	if c.Code == "" {
		return c, false, errors.New("empty code")
	}
	pct, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || pct < 1 || pct > 100 {
		return c, false, errors.Errorf("percent %q must be an integer between 1 and 100", fields[1])
	}
	c.Percent = pct
	c.Enabled = true

	if len(fields) > 2 {
		if c.Window.Start, err = parseBound(fields[2]); err != nil {
			return c, false, err
		}
	}
	if len(fields) > 3 {
		if c.Window.End, err = parseBound(fields[3]); err != nil {
			return c, false, err
		}
	}
	c.Window = c.Window.Normalize()
	if err := c.Window.Validate(); err != nil {
		return c, false, err
	}
	return c, true, nil
}

func parseBound(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse time %q", s)
	}
	return &t, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
