// Package scheduler wraps gocron for periodic full rebuilds in serve mode.
// Scheduled rebuilds are how future-dated posts go live once their date
// passes without restarting the server.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler manages periodic rebuild jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler instance.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleRebuild registers a periodic rebuild and returns the job ID.
func (s *Scheduler) ScheduleRebuild(interval time.Duration, rebuild func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(rebuild),
		gocron.WithName("scheduled-rebuild"),
	)
	if err != nil {
		return "", fmt.Errorf("create rebuild job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting rebuild scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping rebuild scheduler")
	return s.scheduler.Shutdown()
}
