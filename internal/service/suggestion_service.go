package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/repository"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
)

type suggestionRepository interface {
	List(ctx context.Context, filter models.SuggestionFilter) ([]models.Suggestion, int, error)
	FindByID(ctx context.Context, id string) (*models.Suggestion, error)
	Create(ctx context.Context, suggestion *models.Suggestion) error
	SetStatus(ctx context.Context, id string, status models.SuggestionStatus) (int64, error)
}

// SubmitSuggestionRequest is a member's pick for the current week.
type SubmitSuggestionRequest struct {
	ExternalRef string `json:"external_ref" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Pitch       string `json:"pitch" validate:"required,max=500"`
}

// SuggestionService owns the suggestion ledger: member submissions and
// admin triage.
type SuggestionService struct {
	repo      suggestionRepository
	validator *validator.Validate
	logger    *zap.Logger
	clock     Clock
}

// NewSuggestionService creates a suggestion service.
func NewSuggestionService(repo suggestionRepository, validate *validator.Validate, logger *zap.Logger, clock Clock) *SuggestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &SuggestionService{repo: repo, validator: validate, logger: logger, clock: clock}
}

// Submit records a member suggestion against the current week. The week
// key comes from the service clock, never the client, so the
// one-per-member-per-week cap cannot be dodged by varying the payload.
// The cap itself lives in the store as a unique constraint; a violation
// surfaces as RATE_LIMITED rather than CONFLICT because the member is
// being told to slow down, not that the resource exists.
func (s *SuggestionService) Submit(ctx context.Context, userID string, req SubmitSuggestionRequest) (*models.Suggestion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion payload")
	}
	week := WeekKey(s.clock())

	suggestion := &models.Suggestion{
		UserID:        userID,
		ExternalRef:   req.ExternalRef,
		Title:         req.Title,
		Pitch:         req.Pitch,
		WeekSuggested: week,
		Status:        models.SuggestionPending,
	}

	if err := s.repo.Create(ctx, suggestion); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrRateLimited, "you already suggested a film for that week")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit suggestion")
	}

	s.logger.Info("suggestion submitted",
		zap.String("suggestion_id", suggestion.ID),
		zap.String("user_id", userID),
		zap.Time("week_suggested", week))
	return suggestion, nil
}

// List returns paginated suggestions matching the filter.
func (s *SuggestionService) List(ctx context.Context, filter models.SuggestionFilter) ([]models.Suggestion, *models.Pagination, error) {
	suggestions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suggestions")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return suggestions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Accept moves a PENDING suggestion to ACCEPTED. Repeating a decision
// is a no-op; flipping a terminal decision is a conflict.
func (s *SuggestionService) Accept(ctx context.Context, id string) (*models.Suggestion, error) {
	return s.triage(ctx, id, models.SuggestionAccepted)
}

// Reject moves a PENDING suggestion to REJECTED.
func (s *SuggestionService) Reject(ctx context.Context, id string) (*models.Suggestion, error) {
	return s.triage(ctx, id, models.SuggestionRejected)
}

func (s *SuggestionService) triage(ctx context.Context, id string, status models.SuggestionStatus) (*models.Suggestion, error) {
	affected, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update suggestion")
	}
	if affected == 0 {
		// The guarded update skipped the row; look at it to decide why.
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "suggestion not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load suggestion")
		}
		if existing.Status == status {
			return existing, nil
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "suggestion has already been triaged")
	}

	suggestion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load suggestion")
	}
	s.logger.Info("suggestion triaged",
		zap.String("suggestion_id", id),
		zap.String("status", string(status)))
	return suggestion, nil
}
