package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/realtime"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
)

// eventPublisher is the slice of the realtime hub the mutation services
// need. Events are published only after the store commit succeeds.
type eventPublisher interface {
	Publish(filmID string, kind realtime.EventKind, payload interface{})
}

type interactionRepository interface {
	UpsertWatchStatus(ctx context.Context, status *models.WatchStatus) error
	GetWatchStatus(ctx context.Context, userID, filmID string) (*models.WatchStatus, error)
	UpsertRating(ctx context.Context, rating *models.Rating) (bool, error)
	GetRating(ctx context.Context, userID, filmID string) (*models.Rating, error)
	ListRatings(ctx context.Context, filmID string) ([]models.Rating, error)
}

type interactionFilmLookup interface {
	FindByID(ctx context.Context, id string) (*models.Film, error)
}

// SetWatchStatusRequest upserts a member's progress on a film.
type SetWatchStatusRequest struct {
	Status models.WatchState `json:"status" validate:"required"`
}

// RateFilmRequest upserts a member's rating of a film.
type RateFilmRequest struct {
	Score  int     `json:"score" validate:"required,min=1,max=10"`
	Review *string `json:"review,omitempty" validate:"omitempty,max=2000"`
}

// InteractionService owns per-member film state: watch status and
// ratings. Both writes are upserts keyed on (user_id, film_id).
type InteractionService struct {
	repo      interactionRepository
	films     interactionFilmLookup
	events    eventPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInteractionService creates an interaction service.
func NewInteractionService(repo interactionRepository, films interactionFilmLookup, events eventPublisher, validate *validator.Validate, logger *zap.Logger) *InteractionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InteractionService{repo: repo, films: films, events: events, validator: validate, logger: logger}
}

// SetWatchStatus records a member's watch progress for a film.
func (s *InteractionService) SetWatchStatus(ctx context.Context, userID, filmID string, req SetWatchStatusRequest) (*models.WatchStatus, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be NOT_STARTED, WATCHING or WATCHED")
	}
	if err := s.ensureFilm(ctx, filmID); err != nil {
		return nil, err
	}

	status := &models.WatchStatus{UserID: userID, FilmID: filmID, Status: req.Status}
	if err := s.repo.UpsertWatchStatus(ctx, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save watch status")
	}
	return status, nil
}

// WatchStatus returns a member's watch status for a film, defaulting to
// NOT_STARTED when nothing has been recorded.
func (s *InteractionService) WatchStatus(ctx context.Context, userID, filmID string) (*models.WatchStatus, error) {
	status, err := s.repo.GetWatchStatus(ctx, userID, filmID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.WatchStatus{UserID: userID, FilmID: filmID, Status: models.WatchNotStarted}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load watch status")
	}
	return status, nil
}

// Rate records a member's rating of a film. A first write publishes
// rating:new, a revision publishes rating:update; the distinction comes
// back from the store so two racing writers never both claim "new".
func (s *InteractionService) Rate(ctx context.Context, userID, filmID string, req RateFilmRequest) (*models.Rating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}
	if err := s.ensureFilm(ctx, filmID); err != nil {
		return nil, err
	}

	rating := &models.Rating{UserID: userID, FilmID: filmID, Score: req.Score, Review: req.Review}
	inserted, err := s.repo.UpsertRating(ctx, rating)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rating")
	}

	kind := realtime.EventRatingUpdate
	if inserted {
		kind = realtime.EventRatingNew
	}
	if s.events != nil {
		s.events.Publish(filmID, kind, rating)
	}
	return rating, nil
}

// FilmRatings returns every rating for a film plus the aggregate.
func (s *InteractionService) FilmRatings(ctx context.Context, filmID string) (*models.FilmRatings, error) {
	if err := s.ensureFilm(ctx, filmID); err != nil {
		return nil, err
	}
	ratings, err := s.repo.ListRatings(ctx, filmID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ratings")
	}
	agg := aggregateRatings(filmID, ratings)
	return &agg, nil
}

func (s *InteractionService) ensureFilm(ctx context.Context, filmID string) error {
	if _, err := s.films.FindByID(ctx, filmID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "film not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load film")
	}
	return nil
}
