package scheduler

import (
	"context"
	"time"
)

// Scheduler triggers a job on a fixed interval, the in-process stand-in for
// the platform's settlement cron. The job owns its own error handling; a
// failing run never stops the loop.
type Scheduler struct {
	interval time.Duration
	job      func(ctx context.Context)
}

func New(interval time.Duration, job func(ctx context.Context)) *Scheduler {
	return &Scheduler{interval: interval, job: job}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.job(ctx)
		}
	}
}
