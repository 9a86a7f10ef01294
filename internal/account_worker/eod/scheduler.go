package eod

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is the unit of work the scheduler triggers
type Runner interface {
	Run(ctx context.Context) Result
}

// Scheduler triggers a Runner on a cron expression in a fixed timezone.
// Overlapping triggers are skipped while a run is still in progress.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(logger *slog.Logger, runner Runner, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.cron.AddFunc(spec, s.trigger); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid EOD schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) trigger() {
	res := s.runner.Run(s.ctx)
	if res.Err != nil {
		s.logger.Warn("Scheduled EOD run finished with errors",
			"snapshot_date", res.SnapshotDate.Format(time.DateOnly),
			"error", res.Err)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("EOD scheduler started", "next_run", e.Next)
	}
}

// Stop prevents new runs and waits for a running one up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("EOD run still in progress at shutdown, cancelling")
		s.cancel()
		<-done.Done()
	}
	s.cancel()
}
