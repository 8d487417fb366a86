package converter

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPercentage(t *testing.T) {
	testCases := []struct {
		done, total int64
		expected    int
	}{
		{0, 0, 100},
		{0, 10, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{999, 1000, 99},
	}

	for _, tc := range testCases {
		if got := Percentage(tc.done, tc.total); got != tc.expected {
			t.Errorf("Percentage(%d, %d): expected %d, got %d", tc.done, tc.total, tc.expected, got)
		}
	}
}

func TestProgressStopsWhenDone(t *testing.T) {
	p := NewProgress(3, time.Millisecond, zap.NewNop().Sugar())
	for i := 0; i < 3; i++ {
		p.Inc()
	}

	finished := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected progress loop to stop once every unit is done")
	}
}

func TestProgressStopsOnCancel(t *testing.T) {
	p := NewProgress(10, time.Hour, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected progress loop to stop on cancel")
	}

	if p.Done() != 0 || p.Total() != 10 {
		t.Errorf("Unexpected counters %d / %d", p.Done(), p.Total())
	}
}
