/**
 * @description
 * Cron scheduler setup for the recurring engine runs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SchedulerConfig holds the cron expressions for the engine runs.
type SchedulerConfig struct {
	AllocationSchedule string
	FundingSchedule    string
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron       *cron.Cron
	allocation *AllocationEngine
	funding    *FundingEngine
	logger     *slog.Logger
	config     SchedulerConfig
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(allocation *AllocationEngine, funding *FundingEngine, logger *slog.Logger, cfg SchedulerConfig) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:       c,
		allocation: allocation,
		funding:    funding,
		logger:     logger,
		config:     cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.AllocationSchedule, s.runAllocation); err != nil {
		s.logger.Error("failed to schedule allocation job", "error", err)
	} else {
		s.logger.Info("scheduled allocation job", "schedule", s.config.AllocationSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.FundingSchedule, s.runFunding); err != nil {
		s.logger.Error("failed to schedule funding job", "error", err)
	} else {
		s.logger.Info("scheduled funding job", "schedule", s.config.FundingSchedule)
	}

	s.cron.Start()
}

func (s *Scheduler) runAllocation() {
	if _, err := s.allocation.RunDailyAllocation(context.Background()); err != nil {
		s.logger.Error("allocation job failed", "error", err)
	}
}

func (s *Scheduler) runFunding() {
	if _, err := s.funding.RunFundingCycle(context.Background()); err != nil {
		s.logger.Error("funding job failed", "error", err)
	}
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
