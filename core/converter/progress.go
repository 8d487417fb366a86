package converter

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Progress counts finished units and periodically logs the completion ratio.
type Progress struct {
	done     atomic.Int64
	total    int64
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewProgress(total int64, interval time.Duration, log *zap.SugaredLogger) *Progress {
	if interval <= 0 {
		interval = time.Second
	}

	return &Progress{
		total:    total,
		interval: interval,
		log:      log,
	}
}

func (p *Progress) Inc() {
	p.done.Add(1)
}

func (p *Progress) Done() int64 {
	return p.done.Load()
}

func (p *Progress) Total() int64 {
	return p.total
}

// Percentage is the whole-number completion, 100 when there is nothing to do.
func Percentage(done, total int64) int {
	if total <= 0 {
		return 100
	}

	return int(done * 100 / total)
}

// Start logs progress every interval until all units are done or ctx is cancelled.
func (p *Progress) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			done := p.Done()
			p.report(done)
			if done >= p.total {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Progress) report(done int64) {
	p.log.Infof("Processing (%d%%) (%d / %d)", Percentage(done, p.total), done, p.total)
}
