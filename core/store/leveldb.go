package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	dslvl "github.com/ipfs/go-ds-leveldb"
	"github.com/pyropy/chunkfmt/core/model"
)

const (
	LevelDBDir  = "region.ldb"
	chunkPrefix = "/chunk"
)

func LevelDBPath(dir string) string {
	return filepath.Join(dir, LevelDBDir)
}

func chunkKey(pos model.ChunkPos) ds.Key {
	return ds.NewKey(fmt.Sprintf("%s/%d/%d", chunkPrefix, pos.X, pos.Z))
}

func parseChunkKey(key string) (model.ChunkPos, error) {
	parts := strings.Split(strings.TrimPrefix(key, chunkPrefix+"/"), "/")
	if len(parts) != 2 {
		return model.ChunkPos{}, fmt.Errorf("%w: key %q", ErrCorruptRow, key)
	}

	x, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return model.ChunkPos{}, fmt.Errorf("%w: key %q: %v", ErrCorruptRow, key, err)
	}

	z, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return model.ChunkPos{}, fmt.Errorf("%w: key %q: %v", ErrCorruptRow, key, err)
	}

	return model.ChunkPos{X: int32(x), Z: int32(z)}, nil
}

type leveldbEngine struct {
	store *dslvl.Datastore
}

func openLevelDB(dir string, mode Mode) (*leveldbEngine, error) {
	path := LevelDBPath(dir)

	_, err := os.Stat(path)
	switch {
	case mode == ModeCreate && err == nil:
		return nil, fmt.Errorf("%w: %s", ErrStoreExists, path)
	case mode == ModeCreate && !errors.Is(err, os.ErrNotExist):
		return nil, err
	case mode == ModeExisting && errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrStoreMissing, path)
	case mode == ModeExisting && err != nil:
		return nil, err
	}

	if mode == ModeCreate {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	store, err := dslvl.NewDatastore(path, nil)
	if err != nil {
		return nil, err
	}

	return &leveldbEngine{store: store}, nil
}

func (e *leveldbEngine) put(ctx context.Context, recs []model.ChunkRecord) error {
	b, err := e.store.Batch(ctx)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		if err := b.Put(ctx, chunkKey(rec.Pos), rec.Data); err != nil {
			return fmt.Errorf("put chunk %s: %w", rec.Pos, err)
		}
	}

	return b.Commit(ctx)
}

func (e *leveldbEngine) get(ctx context.Context, pos model.ChunkPos) ([]byte, error) {
	b, err := e.store.Get(ctx, chunkKey(pos))
	if errors.Is(err, ds.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, pos)
	}
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (e *leveldbEngine) count(ctx context.Context) (int, error) {
	res, err := e.store.Query(ctx, dsq.Query{Prefix: chunkPrefix, KeysOnly: true})
	if err != nil {
		return 0, err
	}
	defer res.Close()

	n := 0
	for {
		r, hasNext := res.NextSync()
		if !hasNext {
			break
		}
		if r.Error != nil {
			return 0, r.Error
		}
		n++
	}

	return n, nil
}

func (e *leveldbEngine) scan(ctx context.Context) (rowScanner, error) {
	res, err := e.store.Query(ctx, dsq.Query{Prefix: chunkPrefix})
	if err != nil {
		return nil, err
	}

	return &leveldbRows{res: res}, nil
}

func (e *leveldbEngine) commit(ctx context.Context) error {
	return e.store.Sync(ctx, ds.NewKey(chunkPrefix))
}

func (e *leveldbEngine) close() error {
	return e.store.Close()
}

type leveldbRows struct {
	res dsq.Results
}

func (r *leveldbRows) next() (model.ChunkRecord, bool, error) {
	res, hasNext := r.res.NextSync()
	if !hasNext {
		return model.ChunkRecord{}, false, nil
	}
	if res.Error != nil {
		return model.ChunkRecord{}, false, res.Error
	}

	pos, err := parseChunkKey(res.Key)
	if err != nil {
		return model.ChunkRecord{}, false, err
	}

	return model.ChunkRecord{Pos: pos, Data: res.Value}, true, nil
}

func (r *leveldbRows) close() error {
	return r.res.Close()
}
