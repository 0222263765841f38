package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const warmTimeout = 2 * time.Minute

// Warmer refreshes the inventory cache.
type Warmer interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	warmer   Warmer
	logger   *zap.Logger
}

// NewScheduler creates a scheduler that refreshes the cache on the given
// standard five-field cron schedule, evaluated in loc.
func NewScheduler(schedule string, loc *time.Location, warmer Warmer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		warmer:   warmer,
		logger:   logger,
	}
}

// Start registers the warm-up job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.warmCache); err != nil {
		return fmt.Errorf("invalid cache warm schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) warmCache() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	if err := s.warmer.Refresh(ctx); err != nil {
		s.logger.Error("failed to warm inventory cache", zap.Error(err))
		return
	}
	s.logger.Info("inventory cache warmed")
}
