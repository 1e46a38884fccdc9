// Package scheduler runs jobs on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"evecorpbot/internal/clock"
)

// Job is a unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler ticks every registered job on its own interval. Each tick starts
// the job on a new goroutine, so a slow run may overlap the next one.
type Scheduler struct {
	clock  clock.Clock
	logger *slog.Logger
	jobs   []Job
	wg     sync.WaitGroup
}

// New returns an empty Scheduler.
func New(clk clock.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{clock: clk, logger: logger}
}

// Every registers run under name. It must be called before Run.
func (s *Scheduler) Every(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, Job{Name: name, Interval: interval, Run: run})
}

// Run ticks all jobs until ctx is done, then waits for in-flight runs.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			return fmt.Errorf("job %s: non-positive interval %s", job.Name, job.Interval)
		}
	}

	var loops sync.WaitGroup
	for _, job := range s.jobs {
		loops.Add(1)
		go func(job Job) {
			defer loops.Done()
			s.loop(ctx, job)
		}(job)
		s.logger.Info("job scheduled", "job", job.Name, "interval", job.Interval.String())
	}
	loops.Wait()
	s.wg.Wait()
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := s.clock.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.wg.Add(1)
			go s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", job.Name, "panic", r)
		}
	}()

	start := s.clock.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name, "err", err)
		return
	}
	s.logger.Debug("job finished", "job", job.Name, "took", s.clock.Now().Sub(start).String())
}
