// Package scheduler runs periodic background jobs on a cron schedule (UTC).
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job does one run and reports how many items it handled.
type Job func(ctx context.Context) (int, error)

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// New returns a scheduler whose runs are cancelled after timeout.
func New(timeout time.Duration, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		logger:  logger,
	}
}

// Add registers job under a five-field cron spec or descriptor such as "@hourly".
func (s *Scheduler) Add(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	return err
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	n, err := job(ctx)
	if err != nil {
		s.logger.Errorw("scheduled job failed", "job", name, "handled", n, "err", err)
		return
	}
	s.logger.Infow("scheduled job finished", "job", name, "handled", n, "duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warnw("scheduled job still running at shutdown")
	}
}
