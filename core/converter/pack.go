package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pyropy/chunkfmt/core/model"
	"github.com/pyropy/chunkfmt/core/normalize"
	"github.com/pyropy/chunkfmt/core/region"
	"github.com/pyropy/chunkfmt/core/store"
	"github.com/pyropy/chunkfmt/core/upgrade"
)

// Pack copies every region file of the dimension into a new chunk store.
func (c *Converter) Pack(ctx context.Context) (*Summary, error) {
	start := time.Now()
	if err := c.begin(); err != nil {
		return nil, err
	}

	dir := regionDir(c.dim)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return c.fail(DirectionPack, start, precondition("region directory does not exist", err))
	}
	if store.Exists(c.dim.Dir, c.cfg.Backend) {
		return c.fail(DirectionPack, start, precondition("chunk store already exists", store.ErrStoreExists))
	}

	files, skipped, err := c.scanRegionDir(dir)
	if err != nil {
		c.setState(StateFailed)
		return c.summary(DirectionPack, start, 0, false), err
	}

	// In-flight units and the final commit must outlive cancellation.
	workCtx := context.WithoutCancel(ctx)

	s, err := store.Open(workCtx, store.Options{
		Dir:     c.dim.Dir,
		Mode:    store.ModeCreate,
		Backend: c.cfg.Backend,
		Level:   c.cfg.CompressionLevel,
	})
	if errors.Is(err, store.ErrStoreExists) {
		return c.fail(DirectionPack, start, precondition("chunk store already exists", err))
	}
	if err != nil {
		c.setState(StateFailed)
		return c.summary(DirectionPack, start, skipped, false), err
	}

	p := NewProgress(int64(len(files)), c.cfg.ProgressInterval, c.log)
	c.progress.Store(p)
	c.setState(StateConverting)
	c.log.Infow("pack", "files", len(files), "skipped", skipped, "workers", c.cfg.WorkerCount(), "store", s.Path())

	i := 0
	canceled := convert(ctx, c.cfg.WorkerCount(), p, func() (string, bool) {
		if i >= len(files) {
			return "", false
		}
		i++
		return files[i-1], true
	}, func(path string) {
		n, err := c.packRegion(workCtx, s, path)
		if err != nil {
			cat := c.tally.fail(err)
			c.log.Errorw("region file failed", "file", filepath.Base(path), "category", cat, "err", err)
			return
		}
		c.tally.succeeded.Add(1)
		c.tally.chunks.Add(int64(n))
	})

	c.setState(StateFlushing)
	flushErr := errors.Join(s.Commit(workCtx), s.Close())
	if flushErr != nil {
		c.setState(StateFailed)
		return c.summary(DirectionPack, start, skipped, canceled), flushErr
	}

	c.setState(StateDone)
	summary := c.summary(DirectionPack, start, skipped, canceled)
	if canceled {
		return summary, context.Canceled
	}

	return summary, nil
}

// scanRegionDir lists the regular files of dir that look like region files.
func (c *Converter) scanRegionDir(dir string) ([]string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}

	files := make([]string, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		if !region.IsRegionFile(e.Name()) {
			c.log.Infow("skipping file", "file", e.Name())
			skipped++
			continue
		}

		files = append(files, filepath.Join(dir, e.Name()))
	}

	return files, skipped, nil
}

// packRegion converts every chunk of one region file and writes them in a
// single burst. Corrupt slots are logged and skipped.
func (c *Converter) packRegion(ctx context.Context, s *store.Store, path string) (int, error) {
	name := filepath.Base(path)
	if _, err := region.ParseFileName(name); err != nil {
		return 0, err
	}

	f, err := region.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	recs := make([]model.ChunkRecord, 0, f.ChunkCount())
	for x := 0; x < model.RegionWidth; x++ {
		for z := 0; z < model.RegionWidth; z++ {
			pos := f.Pos().Chunk(x, z)

			data, err := c.packChunk(f, x, z)
			if errors.Is(err, region.ErrChunkAbsent) {
				continue
			}
			if err != nil {
				cat := c.tally.fail(err)
				c.log.Warnw("chunk skipped", "file", name, "x", pos.X, "z", pos.Z, "category", cat, "err", err)
				continue
			}

			recs = append(recs, model.ChunkRecord{Pos: pos, Data: s.Compress(data)})
		}
	}

	if err := s.PutRecords(ctx, recs); err != nil {
		return 0, fmt.Errorf("store %s: %w", name, err)
	}

	return len(recs), nil
}

func (c *Converter) packChunk(f *region.File, x, z int) ([]byte, error) {
	payload, scheme, err := f.ReadChunk(x, z)
	if err != nil {
		return nil, err
	}

	raw, err := region.Decompress(scheme, payload)
	if err != nil {
		return nil, err
	}

	tree, err := c.codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", region.ErrCorruptRegion, err)
	}

	tree, err = c.upgrader.Upgrade(tree, upgrade.DataVersion(tree))
	if err != nil {
		return nil, err
	}

	tree = normalize.Pack(tree, c.dim.HasSkyLight)

	return c.codec.Encode(tree)
}
