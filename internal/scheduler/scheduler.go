package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/saaswatch/saaswatch/internal/common"
	"github.com/saaswatch/saaswatch/internal/orchestrator"
)

// Runner is the narrow view of the orchestrator the trigger source needs.
type Runner interface {
	Run(ctx context.Context, appName string) (orchestrator.Outcome, error)
}

// Entry schedules one application on a cron cadence.
type Entry struct {
	AppName  string `mapstructure:"app_name" yaml:"app_name"`
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// Scheduler fires independent executions on a cron cadence. Overlapping
// executions for the same app are allowed: metrics are timestamped and
// at-least-once emission does not corrupt the series.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
}

// New creates an empty scheduler around the given runner.
func New(runner Runner) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
	}
}

// Add registers one entry. The execution context passed to the runner is
// the scheduler's run context, so shutdown cancels in-flight executions.
func (s *Scheduler) Add(baseCtx context.Context, e Entry) error {
	if e.AppName == "" {
		return fmt.Errorf("scheduler: entry without app_name")
	}
	logger := common.GetLogger().WithComponent("scheduler").WithApp(e.AppName)
	_, err := s.cron.AddFunc(e.Schedule, func() {
		outcome, err := s.runner.Run(baseCtx, e.AppName)
		if err != nil {
			logger.Error("execution fault", "error", err)
			return
		}
		logger.Debug("execution finished", "outcome", string(outcome))
	})
	if err != nil {
		return fmt.Errorf("scheduler: add %q (%q): %w", e.AppName, e.Schedule, err)
	}
	logger.Info("scheduled", "schedule", e.Schedule)
	return nil
}

// Start runs the scheduler until ctx is cancelled, then stops accepting
// triggers and waits for running jobs to return.
func (s *Scheduler) Start(ctx context.Context) {
	logger := common.GetLogger().WithComponent("scheduler")
	s.cron.Start()
	logger.Info("scheduler started", "entries", len(s.cron.Entries()))
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped")
}
