// Package scheduler runs the report job on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run; its error is logged, never fatal.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron *cron.Cron
	job  Job
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// running guards against overlapping runs when a job outlasts its period.
	running sync.Mutex
}

func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(),
		job:    job,
		log:    logger.With("component", "scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "next_run", s.Next())
}

// Stop cancels a run in progress and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunOnce runs the job immediately, outside the schedule.
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

// Next reports when the job fires next; empty before Start.
func (s *Scheduler) Next() string {
	entries := s.cron.Entries()
	if len(entries) == 0 || entries[0].Next.IsZero() {
		return ""
	}
	return entries[0].Next.Format("02/01/2006 15:04")
}

func (s *Scheduler) runOnce() {
	if !s.running.TryLock() {
		s.log.Warn("previous run still in progress, skipping")
		return
	}
	defer s.running.Unlock()

	s.log.Info("scheduled job started")
	if err := s.job(s.ctx); err != nil {
		s.log.Error("scheduled job failed", "error", err)
		return
	}
	s.log.Info("scheduled job done")
}
