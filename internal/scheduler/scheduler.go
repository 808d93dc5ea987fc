// Package scheduler runs periodic dataset reloads from a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ReloadFunc performs one reload.
type ReloadFunc func(ctx context.Context) error

// Scheduler triggers a reload on a standard five-field cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	reload  ReloadFunc
	timeout time.Duration
	logger  *slog.Logger
}

// Validate checks a cron expression without scheduling anything.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// New schedules reload at spec. Each run gets timeout to complete.
func New(spec string, reload ReloadFunc, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		reload:  reload,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule reload %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running reload to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting reload scheduler", "next", s.Next())
	s.cron.Start()
	<-ctx.Done()
	s.logger.Info("Stopping reload scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// Next returns the next scheduled run after now.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now())
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.reload(ctx); err != nil {
		s.logger.Error("Scheduled reload failed", "error", err)
	}
}
