package converter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionPack   Direction = "pack"
	DirectionUnpack Direction = "unpack"
)

// Summary describes a finished run.
type Summary struct {
	RunID         uuid.UUID
	Direction     Direction
	Dimension     string
	Total         int64
	Done          int64
	Succeeded     int64
	ChunksWritten int64
	SkippedFiles  int
	Failures      map[Category]int
	Canceled      bool
	Elapsed       time.Duration
}

// Failed returns the total number of recorded failures.
func (s *Summary) Failed() int {
	n := 0
	for _, c := range s.Failures {
		n += c
	}

	return n
}

type tally struct {
	mu       sync.Mutex
	failures map[Category]int

	succeeded atomic.Int64
	chunks    atomic.Int64
}

func newTally() *tally {
	return &tally{failures: make(map[Category]int)}
}

func (t *tally) fail(err error) Category {
	c := Classify(err)

	t.mu.Lock()
	t.failures[c]++
	t.mu.Unlock()

	return c
}

func (t *tally) snapshot() map[Category]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[Category]int, len(t.failures))
	for k, v := range t.failures {
		out[k] = v
	}

	return out
}
