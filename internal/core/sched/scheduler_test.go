package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingJob struct {
	name     string
	interval time.Duration
	runs     atomic.Int64
	sleep    time.Duration
	inFlight atomic.Int64
	overlap  atomic.Bool
}

func (j *countingJob) Name() string            { return j.name }
func (j *countingJob) Interval() time.Duration { return j.interval }

func (j *countingJob) Run(ctx context.Context) error {
	if j.inFlight.Add(1) > 1 {
		j.overlap.Store(true)
	}
	defer j.inFlight.Add(-1)
	if j.sleep > 0 {
		time.Sleep(j.sleep)
	}
	j.runs.Add(1)
	return nil
}

func TestSchedulerRunsEachJobRepeatedly(t *testing.T) {
	s := New(zap.NewNop())
	fast := &countingJob{name: "fast", interval: 10 * time.Millisecond}
	slow := &countingJob{name: "slow", interval: 25 * time.Millisecond}
	s.Register(fast)
	s.Register(slow)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(120 * time.Millisecond)
	cancel()
	s.Wait()

	if got := fast.runs.Load(); got < 3 {
		t.Fatalf("fast job ran %d times in 120ms, want >= 3", got)
	}
	if got := slow.runs.Load(); got < 2 {
		t.Fatalf("slow job ran %d times in 120ms, want >= 2", got)
	}
}

func TestSchedulerNeverOverlapsOneJob(t *testing.T) {
	s := New(zap.NewNop())
	// Runs take three intervals; ticks must be dropped, not stacked.
	j := &countingJob{name: "heavy", interval: 10 * time.Millisecond, sleep: 30 * time.Millisecond}
	s.Register(j)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(150 * time.Millisecond)
	cancel()
	s.Wait()

	if j.overlap.Load() {
		t.Fatalf("job overlapped itself")
	}
	if got := j.runs.Load(); got == 0 {
		t.Fatalf("job never ran")
	}
}

func TestWaitReturnsAfterCancel(t *testing.T) {
	s := New(zap.NewNop())
	s.Register(&countingJob{name: "idle", interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Wait did not return after cancel")
	}
}
