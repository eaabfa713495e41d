// Package sweeper removes task records that have aged past the retention
// window, on a cron schedule.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/interfaces"
)

// Sweeper handles periodic task retention cleanup
type Sweeper struct {
	tasks     interfaces.TaskStore
	retention time.Duration
	cron      *cron.Cron
	logger    arbor.ILogger
}

// NewSweeper creates a retention sweeper over the given task store
func NewSweeper(tasks interfaces.TaskStore, retention time.Duration, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		tasks:     tasks,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start begins the scheduled sweep
func (s *Sweeper) Start(schedule string) error {
	if schedule == "" {
		// Default: every 10 minutes
		schedule = "*/10 * * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Str("retention", s.retention.String()).
		Msg("Task retention sweeper started")

	return nil
}

// Stop stops the sweeper
func (s *Sweeper) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Task retention sweeper stopped")
}

// RunNow triggers an immediate sweep
func (s *Sweeper) RunNow() {
	s.logger.Info().Msg("Triggering immediate retention sweep")
	go s.runSweep()
}

func (s *Sweeper) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.tasks.SweepOlderThan(ctx, s.retention)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("Retention sweep failed")
		return
	}

	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Msg("Retention sweep completed")
	}
}
