// Package store keeps zstd-compressed chunk trees in a single-file database
// keyed by chunk coordinate.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pyropy/chunkfmt/core/model"
	"github.com/pyropy/chunkfmt/lib/compress"
)

var (
	ErrStoreExists   = errors.New("chunk store already exists")
	ErrStoreMissing  = errors.New("chunk store does not exist")
	ErrChunkNotFound = errors.New("chunk not found")
	ErrCorruptRow    = errors.New("corrupt chunk store row")
	ErrUnknownEngine = errors.New("unknown chunk store backend")
	ErrClosed        = errors.New("chunk store closed")
)

type Mode int

const (
	// ModeCreate opens a fresh store tuned for one bulk write.
	ModeCreate Mode = iota
	// ModeExisting opens a store that must already exist.
	ModeExisting
)

const (
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"
)

type Options struct {
	Dir     string
	Mode    Mode
	Backend string
	Level   int
}

// engine is the storage behind a Store. Payloads are passed through
// compressed.
type engine interface {
	put(ctx context.Context, recs []model.ChunkRecord) error
	get(ctx context.Context, pos model.ChunkPos) ([]byte, error)
	scan(ctx context.Context) (rowScanner, error)
	count(ctx context.Context) (int, error)
	commit(ctx context.Context) error
	close() error
}

// Store wraps an engine with the zstd codec and serializes writes.
type Store struct {
	mu     sync.Mutex
	engine engine
	zstd   *compress.Zstd
	path   string
	closed bool
}

// Open opens the store in opts.Dir. Nothing is created when it fails.
func Open(ctx context.Context, opts Options) (*Store, error) {
	z, err := compress.NewZstd(opts.Level)
	if err != nil {
		return nil, err
	}

	var e engine
	var path string
	switch strings.ToLower(opts.Backend) {
	case "", BackendSQLite:
		path = SQLitePath(opts.Dir)
		e, err = openSQLite(ctx, opts.Dir, opts.Mode)
	case BackendLevelDB:
		path = LevelDBPath(opts.Dir)
		e, err = openLevelDB(opts.Dir, opts.Mode)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Backend)
	}
	if err != nil {
		z.Close()
		return nil, err
	}

	return &Store{
		engine: e,
		zstd:   z,
		path:   path,
	}, nil
}

// Exists reports whether a store of the given backend is present in dir,
// including the transient files an interrupted run leaves behind.
func Exists(dir, backend string) bool {
	var sentinels []string
	switch strings.ToLower(backend) {
	case BackendLevelDB:
		sentinels = []string{LevelDBPath(dir)}
	default:
		sentinels = sqliteSentinels(dir)
	}

	for _, p := range sentinels {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}

	return false
}

func (s *Store) Path() string {
	return s.path
}

// Compress encodes a raw chunk tree for PutRecords.
func (s *Store) Compress(raw []byte) []byte {
	return s.zstd.Compress(raw)
}

// Decompress decodes a stored payload using the size recorded in its frame.
func (s *Store) Decompress(data []byte) ([]byte, error) {
	raw, err := s.zstd.DecompressFrame(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRow, err)
	}

	return raw, nil
}

// Put compresses and upserts a single chunk.
func (s *Store) Put(ctx context.Context, pos model.ChunkPos, raw []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return s.PutRecords(ctx, []model.ChunkRecord{{Pos: pos, Data: s.Compress(raw)}})
}

// PutRecords upserts already compressed chunks as one burst.
func (s *Store) PutRecords(ctx context.Context, recs []model.ChunkRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	return s.engine.put(ctx, recs)
}

// Get returns the decompressed chunk tree stored at pos.
func (s *Store) Get(ctx context.Context, pos model.ChunkPos) ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	data, err := s.engine.get(ctx, pos)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	raw, err := s.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", pos, err)
	}

	return raw, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	return s.engine.count(ctx)
}

// Iterate returns a single pass over every row. Records carry compressed
// payloads; the total is fixed when the iterator is created.
func (s *Store) Iterate(ctx context.Context) (*Iterator, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.engine.scan(ctx)
	if err != nil {
		return nil, err
	}

	return &Iterator{
		rows:  rows,
		total: total,
	}, nil
}

// Commit makes every write so far durable.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	return s.engine.commit(ctx)
}

// Close commits pending writes and releases the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	defer s.zstd.Close()

	commitErr := s.engine.commit(context.Background())
	return errors.Join(commitErr, s.engine.close())
}
