package converter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pyropy/chunkfmt/core/chunktree"
	"github.com/pyropy/chunkfmt/core/model"
	"github.com/pyropy/chunkfmt/core/region"
	"github.com/pyropy/chunkfmt/core/store"
	"go.uber.org/zap"
)

func testConfig(workers int) Config {
	return Config{
		Workers:           workers,
		CompressionLevel:  3,
		DataVersion:       1343,
		Backend:           store.BackendSQLite,
		ProgressInterval:  10 * time.Millisecond,
		RegionCompression: "zlib",
	}
}

func newConverter(t *testing.T, cfg Config, dim model.Dimension) *Converter {
	t.Helper()

	c, err := New(cfg, dim, WithLogger(zap.NewNop().Sugar()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return c
}

func chunkTree(pos model.ChunkPos, withSkyLight bool) chunktree.Compound {
	section := chunktree.Compound{
		"Y":          int8(0),
		"Blocks":     bytes.Repeat([]byte{byte(pos.X)}, 4096),
		"BlockLight": make([]byte, 2048),
	}
	if withSkyLight {
		section["SkyLight"] = bytes.Repeat([]byte{0x0f}, 2048)
	}

	return chunktree.Compound{
		"DataVersion": int32(1139),
		"Level": chunktree.Compound{
			"xPos":       pos.X,
			"zPos":       pos.Z,
			"LastUpdate": int64(42),
			"Sections":   chunktree.NewList(section),
		},
	}
}

// newDimension creates a dimension folder with a region directory.
func newDimension(t *testing.T, name string) model.Dimension {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(dir, RegionDir), 0755); err != nil {
		t.Fatalf("Failed to create region dir: %v", err)
	}

	return NewDimension(dir)
}

// writeRegion stores chunk trees at the given local slots of a region file.
func writeRegion(t *testing.T, dim model.Dimension, pos model.RegionPos, slots [][2]int) []model.ChunkPos {
	t.Helper()

	f, err := region.OpenOrCreate(filepath.Join(regionDir(dim), region.FileName(pos)))
	if err != nil {
		t.Fatalf("OpenOrCreate failed: %v", err)
	}
	defer f.Close()

	written := make([]model.ChunkPos, 0, len(slots))
	for _, s := range slots {
		cp := pos.Chunk(s[0], s[1])
		raw, err := (chunktree.NBT{}).Encode(chunkTree(cp, true))
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		data, err := region.Compress(region.SchemeZlib, raw)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}

		if err := f.WriteChunk(s[0], s[1], data, region.SchemeZlib); err != nil {
			t.Fatalf("WriteChunk failed: %v", err)
		}
		written = append(written, cp)
	}

	return written
}

func readStore(t *testing.T, dim model.Dimension, backend string) map[model.ChunkPos]chunktree.Compound {
	t.Helper()

	ctx := context.Background()
	s, err := store.Open(ctx, store.Options{Dir: dim.Dir, Mode: store.ModeExisting, Backend: backend, Level: 3})
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	defer s.Close()

	it, err := s.Iterate(ctx)
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	defer it.Release()

	out := make(map[model.ChunkPos]chunktree.Compound)
	for it.Next() {
		rec := it.Record()
		raw, err := s.Decompress(rec.Data)
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}

		tree, err := (chunktree.NBT{}).Decode(raw)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		out[rec.Pos] = tree
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Iterator error: %v", err)
	}

	return out
}

func readRegions(t *testing.T, dim model.Dimension) map[model.ChunkPos]chunktree.Compound {
	t.Helper()

	entries, err := os.ReadDir(regionDir(dim))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	out := make(map[model.ChunkPos]chunktree.Compound)
	for _, e := range entries {
		if !region.IsRegionFile(e.Name()) {
			continue
		}

		f, err := region.Open(filepath.Join(regionDir(dim), e.Name()))
		if err != nil {
			t.Fatalf("region.Open failed: %v", err)
		}

		for x := 0; x < 32; x++ {
			for z := 0; z < 32; z++ {
				if !f.Exists(x, z) {
					continue
				}

				data, scheme, err := f.ReadChunk(x, z)
				if err != nil {
					t.Fatalf("ReadChunk failed: %v", err)
				}

				raw, err := region.Decompress(scheme, data)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}

				tree, err := (chunktree.NBT{}).Decode(raw)
				if err != nil {
					t.Fatalf("Decode failed: %v", err)
				}
				out[f.Pos().Chunk(x, z)] = tree
			}
		}
		f.Close()
	}

	return out
}

// readBlobs returns the stored payload of every row as written.
func readBlobs(t *testing.T, dim model.Dimension, backend string) map[model.ChunkPos][]byte {
	t.Helper()

	ctx := context.Background()
	s, err := store.Open(ctx, store.Options{Dir: dim.Dir, Mode: store.ModeExisting, Backend: backend, Level: 3})
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	defer s.Close()

	it, err := s.Iterate(ctx)
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	defer it.Release()

	out := make(map[model.ChunkPos][]byte)
	for it.Next() {
		rec := it.Record()
		out[rec.Pos] = append([]byte(nil), rec.Data...)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Iterator error: %v", err)
	}

	return out
}

// hugeFrame is a zstd frame whose header declares 2^62 content bytes.
func hugeFrame() []byte {
	return []byte{
		0x28, 0xb5, 0x2f, 0xfd, 0xe0,
		0, 0, 0, 0, 0, 0, 0, 0x40,
		0x09, 0x00, 0x00, 'x',
	}
}
