package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
)

type rotationFilmRepository interface {
	Archive(ctx context.Context, weekStart time.Time) (int64, error)
	Promote(ctx context.Context, weekStart time.Time) (int64, error)
}

// RotationResult reports what a CloseWeek call actually changed.
// Re-running a completed rotation legitimately reports zero for both.
type RotationResult struct {
	WeekStart time.Time `json:"week_start"`
	NextWeek  time.Time `json:"next_week"`
	Archived  bool      `json:"archived"`
	Promoted  bool      `json:"promoted"`
}

// RotationService runs the weekly film rotation: archive the outgoing
// week, promote the incoming one. Both steps are individually atomic
// and idempotent, so the operation is retried rather than wrapped in a
// cross-row transaction (the two target rows may not both exist).
type RotationService struct {
	repo   rotationFilmRepository
	cache  *CacheService
	logger *zap.Logger
	clock  Clock
}

// NewRotationService creates a rotation service.
func NewRotationService(repo rotationFilmRepository, cache *CacheService, logger *zap.Logger, clock Clock) *RotationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &RotationService{repo: repo, cache: cache, logger: logger, clock: clock}
}

// CloseWeek archives the film of weekStart and promotes next week's
// UPCOMING film to CURRENT. A week with no film archives nothing, which
// is fine. If the promote step fails after a successful archive the
// error carries the PARTIAL_ROTATION code: the system is left with zero
// current films (never two) and the caller retries this same call;
// the already-archived film makes step one a no-op.
func (s *RotationService) CloseWeek(ctx context.Context, weekStart time.Time) (*RotationResult, error) {
	if !IsWeekKey(weekStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week_start must be a Monday-aligned UTC date")
	}

	archived, err := s.repo.Archive(ctx, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to archive outgoing film")
	}

	nextWeek := weekStart.AddDate(0, 0, 7)

	promoted, err := s.repo.Promote(ctx, nextWeek)
	if err != nil {
		s.logger.Error("rotation promote failed after archive",
			zap.Time("week_start", weekStart),
			zap.Time("next_week", nextWeek),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrPartialRotation.Code, appErrors.ErrPartialRotation.Status,
			"archived week "+weekStart.Format("2006-01-02")+" but failed to promote the next film; retry close-week")
	}

	s.invalidateListings(ctx)

	result := &RotationResult{
		WeekStart: weekStart,
		NextWeek:  nextWeek,
		Archived:  archived > 0,
		Promoted:  promoted > 0,
	}
	s.logger.Info("week closed",
		zap.Time("week_start", weekStart),
		zap.Bool("archived", result.Archived),
		zap.Bool("promoted", result.Promoted),
	)
	return result, nil
}

// RunScheduled closes the week that just ended, relative to the
// injected clock. The cron entry fires shortly after Monday midnight,
// so the outgoing week key is one week behind the current one.
func (s *RotationService) RunScheduled(ctx context.Context) error {
	outgoing := WeekKey(s.clock()).AddDate(0, 0, -7)
	_, err := s.CloseWeek(ctx, outgoing)
	return err
}

func (s *RotationService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePattern(ctx, "films:*"); err != nil {
		s.logger.Warn("failed to invalidate film cache after rotation", zap.Error(err))
	}
}
