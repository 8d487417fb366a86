package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pyropy/chunkfmt/core/model"
	"github.com/pyropy/chunkfmt/core/normalize"
	"github.com/pyropy/chunkfmt/core/region"
	"github.com/pyropy/chunkfmt/core/store"
)

// Unpack writes every row of the chunk store into a new region directory.
func (c *Converter) Unpack(ctx context.Context) (*Summary, error) {
	start := time.Now()
	if err := c.begin(); err != nil {
		return nil, err
	}

	dir := regionDir(c.dim)
	if _, err := os.Stat(dir); err == nil {
		return c.fail(DirectionUnpack, start, precondition("region directory already exists", nil))
	}

	workCtx := context.WithoutCancel(ctx)

	s, err := store.Open(workCtx, store.Options{
		Dir:     c.dim.Dir,
		Mode:    store.ModeExisting,
		Backend: c.cfg.Backend,
		Level:   c.cfg.CompressionLevel,
	})
	if errors.Is(err, store.ErrStoreMissing) {
		return c.fail(DirectionUnpack, start, precondition("chunk store does not exist", err))
	}
	if err != nil {
		c.setState(StateFailed)
		return c.summary(DirectionUnpack, start, 0, false), err
	}

	it, err := s.Iterate(workCtx)
	if err != nil {
		s.Close()
		c.setState(StateFailed)
		return c.summary(DirectionUnpack, start, 0, false), err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		it.Release()
		s.Close()
		c.setState(StateFailed)
		return c.summary(DirectionUnpack, start, 0, false), err
	}

	cache := region.NewCache(dir)
	p := NewProgress(int64(it.Total()), c.cfg.ProgressInterval, c.log)
	c.progress.Store(p)
	c.setState(StateConverting)
	c.log.Infow("unpack", "chunks", it.Total(), "workers", c.cfg.WorkerCount(), "store", s.Path(), "scheme", region.SchemeName(c.scheme))

	canceled := convert(ctx, c.cfg.WorkerCount(), p, func() (model.ChunkRecord, bool) {
		if !it.Next() {
			return model.ChunkRecord{}, false
		}
		return it.Record(), true
	}, func(rec model.ChunkRecord) {
		if err := c.unpackChunk(s, cache, rec); err != nil {
			cat := c.tally.fail(err)
			c.log.Warnw("chunk skipped", "x", rec.Pos.X, "z", rec.Pos.Z, "category", cat, "err", err)
			return
		}
		c.tally.succeeded.Add(1)
		c.tally.chunks.Add(1)
	})

	var iterErr error
	if err := it.Err(); err != nil {
		cat := c.tally.fail(err)
		c.log.Errorw("store iteration stopped", "category", cat, "err", err)
		iterErr = fmt.Errorf("iterate chunk store: %w", err)
	}

	c.setState(StateFlushing)
	files := cache.Len()
	flushErr := errors.Join(cache.Close(), it.Release(), s.Close())
	if flushErr != nil {
		c.setState(StateFailed)
		return c.summary(DirectionUnpack, start, 0, canceled), flushErr
	}

	c.log.Infow("region files written", "files", files)
	c.setState(StateDone)
	summary := c.summary(DirectionUnpack, start, 0, canceled)
	if canceled {
		return summary, context.Canceled
	}

	return summary, iterErr
}

func (c *Converter) unpackChunk(s *store.Store, cache *region.Cache, rec model.ChunkRecord) error {
	raw, err := s.Decompress(rec.Data)
	if err != nil {
		return err
	}

	tree, err := c.codec.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrCorruptRow, err)
	}

	tree = normalize.Unpack(tree, rec.Pos, c.cfg.DataVersion, c.dim.HasSkyLight)

	enc, err := c.codec.Encode(tree)
	if err != nil {
		return err
	}

	data, err := region.Compress(c.scheme, enc)
	if err != nil {
		return err
	}

	return cache.WriteChunk(rec.Pos, data, c.scheme)
}
