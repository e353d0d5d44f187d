package sched

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one periodic simulation task. Run owns its store transaction(s);
// a returned error is logged and the job retries on its next tick.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Scheduler drives each registered job on its own ticker goroutine. A job
// never overlaps itself: its goroutine runs sequentially and a slow run
// simply drops ticker ticks.
type Scheduler struct {
	log  *zap.Logger
	jobs []Job
	wg   sync.WaitGroup
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{log: log}
}

func (s *Scheduler) Register(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start launches one goroutine per job. Cancel ctx to stop; in-flight runs
// finish before Wait returns.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Wait blocks until every job goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	defer s.wg.Done()
	t := time.NewTicker(j.Interval())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			start := time.Now()
			if err := j.Run(ctx); err != nil {
				s.log.Warn("job run failed",
					zap.String("job", j.Name()), zap.Error(err))
			}
			if took := time.Since(start); took > j.Interval() {
				s.log.Warn("job overran its interval",
					zap.String("job", j.Name()),
					zap.Duration("interval", j.Interval()),
					zap.Duration("took", took))
			}
		}
	}
}
