package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/internal/service"
	"github.com/nightreel/cineclub-api/pkg/config"
)

// recapStore is the slice of the recap archive the cleanup job needs.
type recapStore interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// Scheduler runs the weekly rotation on a cron spec. The default spec
// fires shortly after Monday midnight UTC, closing the week that just
// ended; CloseWeek is idempotent, so a missed or repeated fire is safe.
// It also sweeps stored recap files past their retention window.
type Scheduler struct {
	cron      *cron.Cron
	rotation  *service.RotationService
	archive   recapStore
	retention time.Duration
	cfg       config.RotationConfig
	logger    *zap.Logger
}

// New creates a scheduler for the rotation service. archive may be nil
// when recap sharing is not configured.
func New(rotation *service.RotationService, archive recapStore, retention time.Duration, cfg config.RotationConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		rotation:  rotation,
		archive:   archive,
		retention: retention,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	jobs := 0

	if s.cfg.Enabled {
		_, err := s.cron.AddFunc(s.cfg.CronSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := s.rotation.RunScheduled(ctx); err != nil {
				s.logger.Error("scheduled rotation failed", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("failed to add rotation job: %w", err)
		}
		jobs++
		s.logger.Info("rotation job registered", zap.String("spec", s.cfg.CronSpec))
	} else {
		s.logger.Info("rotation scheduler disabled")
	}

	if s.archive != nil && s.retention > 0 {
		_, err := s.cron.AddFunc("30 0 * * *", func() {
			deleted, err := s.archive.CleanupOlderThan(s.retention)
			if err != nil {
				s.logger.Error("recap cleanup failed", zap.Error(err))
				return
			}
			if len(deleted) > 0 {
				s.logger.Info("recap cleanup removed files", zap.Int("count", len(deleted)))
			}
		})
		if err != nil {
			return fmt.Errorf("failed to add recap cleanup job: %w", err)
		}
		jobs++
	}

	if jobs == 0 {
		return nil
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", jobs))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("rotation scheduler stopped")
}
