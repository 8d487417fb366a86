// Package converter moves every chunk of a dimension between region files
// and the chunk store.
package converter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pyropy/chunkfmt/core/chunktree"
	"github.com/pyropy/chunkfmt/core/model"
	"github.com/pyropy/chunkfmt/core/region"
	"github.com/pyropy/chunkfmt/core/upgrade"
	"github.com/pyropy/chunkfmt/lib/logger"
	"go.uber.org/zap"
)

var log, _ = logger.New("converter")

type State int32

const (
	StateIdle State = iota
	StateScanning
	StateConverting
	StateFlushing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConverting:
		return "converting"
	case StateFlushing:
		return "flushing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Option func(c *Converter)

func WithCodec(codec chunktree.Codec) Option {
	return func(c *Converter) {
		c.codec = codec
	}
}

func WithUpgrader(u upgrade.Upgrader) Option {
	return func(c *Converter) {
		c.upgrader = u
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Converter) {
		c.log = l
	}
}

// Converter runs a single conversion of one dimension.
type Converter struct {
	cfg      Config
	dim      model.Dimension
	scheme   byte
	codec    chunktree.Codec
	upgrader upgrade.Upgrader
	log      *zap.SugaredLogger

	runID    uuid.UUID
	state    atomic.Int32
	progress atomic.Pointer[Progress]
	tally    *tally
}

func New(cfg Config, dim model.Dimension, opts ...Option) (*Converter, error) {
	scheme, err := region.ParseScheme(cfg.RegionCompression)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:    cfg,
		dim:    dim,
		scheme: scheme,
		codec:  chunktree.NBT{},
		log:    log,
		runID:  uuid.New(),
		tally:  newTally(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.upgrader == nil {
		c.upgrader = upgrade.NewFixer(cfg.DataVersion)
	}
	c.log = c.log.With("run", c.runID.String())

	return c, nil
}

func (c *Converter) RunID() uuid.UUID {
	return c.runID
}

func (c *Converter) State() State {
	return State(c.state.Load())
}

func (c *Converter) setState(s State) {
	c.state.Store(int32(s))
	c.log.Infow("state", "state", s.String())
}

// Progress returns the units finished so far and the run total.
func (c *Converter) Progress() (int64, int64) {
	p := c.progress.Load()
	if p == nil {
		return 0, 0
	}

	return p.Done(), p.Total()
}

// Run converts in the given direction.
func (c *Converter) Run(ctx context.Context, d Direction) (*Summary, error) {
	switch d {
	case DirectionPack:
		return c.Pack(ctx)
	case DirectionUnpack:
		return c.Unpack(ctx)
	default:
		return nil, fmt.Errorf("unknown direction %q", d)
	}
}

func (c *Converter) begin() error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) {
		return ErrAlreadyRun
	}
	c.log.Infow("state", "state", StateScanning.String(), "dimension", c.dim.Dir)

	return nil
}

func (c *Converter) fail(d Direction, start time.Time, err error) (*Summary, error) {
	c.tally.fail(err)
	c.setState(StateFailed)
	c.log.Warnw("precondition failed", "direction", d, "err", err)

	return c.summary(d, start, 0, false), err
}

func (c *Converter) summary(d Direction, start time.Time, skipped int, canceled bool) *Summary {
	var done, total int64
	if p := c.progress.Load(); p != nil {
		done, total = p.Done(), p.Total()
	}

	return &Summary{
		RunID:         c.runID,
		Direction:     d,
		Dimension:     c.dim.Dir,
		Total:         total,
		Done:          done,
		Succeeded:     c.tally.succeeded.Load(),
		ChunksWritten: c.tally.chunks.Load(),
		SkippedFiles:  skipped,
		Failures:      c.tally.snapshot(),
		Canceled:      canceled,
		Elapsed:       time.Since(start),
	}
}

// convert feeds units from next to a fixed pool of workers until next is
// exhausted or ctx is cancelled. Units already handed out always finish.
// It reports whether dispatch stopped early.
func convert[T any](ctx context.Context, workers int, p *Progress, next func() (T, bool), work func(T)) bool {
	progressCtx, stopProgress := context.WithCancel(ctx)
	var reporter sync.WaitGroup
	reporter.Add(1)
	go func() {
		defer reporter.Done()
		p.Start(progressCtx)
	}()

	units := make(chan T)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range units {
				work(u)
				p.Inc()
			}
		}()
	}

	canceled := false
dispatch:
	for {
		if ctx.Err() != nil {
			canceled = true
			break
		}

		u, ok := next()
		if !ok {
			break
		}

		select {
		case units <- u:
		case <-ctx.Done():
			canceled = true
			break dispatch
		}
	}

	close(units)
	wg.Wait()
	stopProgress()
	reporter.Wait()
	p.report(p.Done())

	return canceled
}
