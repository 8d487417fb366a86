package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyropy/chunkfmt/core/model"
	_ "modernc.org/sqlite"
)

const (
	SQLiteFile = "region.db"

	createTableSQL = `CREATE TABLE chunk (x INTEGER NOT NULL, z INTEGER NOT NULL, data BLOB NOT NULL, PRIMARY KEY (x, z))`
	upsertSQL      = `INSERT OR REPLACE INTO chunk (x, z, data) VALUES (?, ?, ?)`
	selectSQL      = `SELECT data FROM chunk WHERE x = ? AND z = ?`
	scanSQL        = `SELECT x, z, data FROM chunk`
	countSQL       = `SELECT COUNT(*) FROM chunk`
)

func SQLitePath(dir string) string {
	return filepath.Join(dir, SQLiteFile)
}

func sqliteSentinels(dir string) []string {
	p := SQLitePath(dir)
	return []string{p, p + "-wal", p + "-shm", p + "-journal"}
}

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteEngine struct {
	db *sql.DB
	tx *sql.Tx
}

func openSQLite(ctx context.Context, dir string, mode Mode) (*sqliteEngine, error) {
	path := SQLitePath(dir)

	switch mode {
	case ModeCreate:
		if Exists(dir, BackendSQLite) {
			return nil, fmt.Errorf("%w: %s", ErrStoreExists, path)
		}
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	case ModeExisting:
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreMissing, path)
		} else if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	e := &sqliteEngine{db: db}
	if mode == ModeExisting {
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return e, nil
	}

	// Pragmas are per connection, so the bulk load runs on a single one.
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA journal_mode = OFF",
		"PRAGMA synchronous = 0",
		createTableSQL,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			os.Remove(path)
			return nil, fmt.Errorf("init %s: %w", path, err)
		}
	}

	e.tx, err = db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	return e, nil
}

func (e *sqliteEngine) q() querier {
	if e.tx != nil {
		return e.tx
	}

	return e.db
}

func (e *sqliteEngine) put(ctx context.Context, recs []model.ChunkRecord) error {
	var stmt *sql.Stmt
	var err error
	if e.tx != nil {
		stmt, err = e.tx.PrepareContext(ctx, upsertSQL)
	} else {
		stmt, err = e.db.PrepareContext(ctx, upsertSQL)
	}
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.Pos.X, rec.Pos.Z, rec.Data); err != nil {
			return fmt.Errorf("put chunk %s: %w", rec.Pos, err)
		}
	}

	return nil
}

func (e *sqliteEngine) get(ctx context.Context, pos model.ChunkPos) ([]byte, error) {
	var data []byte
	err := e.q().QueryRowContext(ctx, selectSQL, pos.X, pos.Z).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, pos)
	}
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (e *sqliteEngine) count(ctx context.Context) (int, error) {
	var n int
	if err := e.q().QueryRowContext(ctx, countSQL).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func (e *sqliteEngine) scan(ctx context.Context) (rowScanner, error) {
	rows, err := e.q().QueryContext(ctx, scanSQL)
	if err != nil {
		return nil, err
	}

	return &sqliteRows{rows: rows}, nil
}

func (e *sqliteEngine) commit(_ context.Context) error {
	if e.tx == nil {
		return nil
	}

	err := e.tx.Commit()
	e.tx = nil
	return err
}

func (e *sqliteEngine) close() error {
	return e.db.Close()
}

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) next() (model.ChunkRecord, bool, error) {
	if !r.rows.Next() {
		return model.ChunkRecord{}, false, r.rows.Err()
	}

	var rec model.ChunkRecord
	if err := r.rows.Scan(&rec.Pos.X, &rec.Pos.Z, &rec.Data); err != nil {
		return model.ChunkRecord{}, false, fmt.Errorf("%w: %w", ErrCorruptRow, err)
	}

	return rec, true, nil
}

func (r *sqliteRows) close() error {
	return r.rows.Close()
}
