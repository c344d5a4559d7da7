package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeExpirer struct {
	calls atomic.Int64
	n     int64
	err   error
	last  atomic.Value // time.Time
}

func (f *fakeExpirer) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	f.calls.Add(1)
	f.last.Store(now)
	return f.n, f.err
}

type fakeRefresher struct {
	calls atomic.Int64
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestSweepDealsPassesClock(t *testing.T) {
	exp := &fakeExpirer{n: 2}
	s := New(exp, nil, zap.NewNop())
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.SweepDeals(context.Background())

	if exp.calls.Load() != 1 {
		t.Fatalf("sweep ran %d times, want 1", exp.calls.Load())
	}
	if got := exp.last.Load().(time.Time); !got.Equal(clock) {
		t.Fatalf("sweep clock = %v, want %v", got, clock)
	}
}

func TestSweepDealsSwallowsStoreError(t *testing.T) {
	exp := &fakeExpirer{err: errors.New("db down")}
	s := New(exp, nil, zap.NewNop())

	// Must log and move on, never panic.
	s.SweepDeals(context.Background())
}

func TestStartRunsInitialRefresh(t *testing.T) {
	ref := &fakeRefresher{}
	s := New(&fakeExpirer{}, ref, zap.NewNop())
	s.sweepEvery = time.Hour
	s.refreshEvery = time.Hour

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(time.Second)
	for ref.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial refresh never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSweepLoopTicks(t *testing.T) {
	exp := &fakeExpirer{}
	s := New(exp, nil, zap.NewNop())
	s.sweepEvery = 5 * time.Millisecond

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(time.Second)
	for exp.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweep ticked %d times, want at least 2", exp.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStopWaitsForLoops(t *testing.T) {
	s := New(&fakeExpirer{}, &fakeRefresher{}, zap.NewNop())
	s.sweepEvery = time.Hour
	s.refreshEvery = time.Hour

	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
