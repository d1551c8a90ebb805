package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nightreel/cineclub-api/internal/models"
)

// SuggestionRepository manages persistence for member suggestions.
type SuggestionRepository struct {
	db *sqlx.DB
}

// NewSuggestionRepository constructs a SuggestionRepository.
func NewSuggestionRepository(db *sqlx.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

const suggestionColumns = "id, user_id, external_ref, title, pitch, week_suggested, status, created_at, updated_at"

// List returns suggestions matching filters along with total count.
func (r *SuggestionRepository) List(ctx context.Context, filter models.SuggestionFilter) ([]models.Suggestion, int, error) {
	base := "FROM suggestions WHERE 1=1"
	var args []interface{}

	if filter.UserID != "" {
		base += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if filter.Week != nil {
		base += fmt.Sprintf(" AND week_suggested = $%d", len(args)+1)
		args = append(args, *filter.Week)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", suggestionColumns, base, size, offset)
	var suggestions []models.Suggestion
	if err := r.db.SelectContext(ctx, &suggestions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list suggestions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count suggestions: %w", err)
	}

	return suggestions, total, nil
}

// FindByID fetches a suggestion by ID.
func (r *SuggestionRepository) FindByID(ctx context.Context, id string) (*models.Suggestion, error) {
	query := fmt.Sprintf("SELECT %s FROM suggestions WHERE id = $1", suggestionColumns)
	var suggestion models.Suggestion
	if err := r.db.GetContext(ctx, &suggestion, query, id); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

// Create inserts a PENDING suggestion. The UNIQUE(user_id, week_suggested)
// index is the one-per-member-per-week guard; there is deliberately no
// existence read before the insert since two concurrent submissions can
// both pass such a check. A violation comes back as ErrDuplicate.
func (r *SuggestionRepository) Create(ctx context.Context, suggestion *models.Suggestion) error {
	if suggestion.ID == "" {
		suggestion.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	suggestion.CreatedAt = now
	suggestion.UpdatedAt = now
	suggestion.Status = models.SuggestionPending

	const query = `INSERT INTO suggestions (id, user_id, external_ref, title, pitch, week_suggested, status, created_at, updated_at)
		VALUES (:id, :user_id, :external_ref, :title, :pitch, :week_suggested, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, suggestion); err != nil {
		if translated := translateUnique(err); translated == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

// SetStatus moves a suggestion into a terminal state. The status guard
// keeps terminal rows terminal regardless of concurrent triage.
func (r *SuggestionRepository) SetStatus(ctx context.Context, id string, status models.SuggestionStatus) (int64, error) {
	const query = `UPDATE suggestions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, models.SuggestionPending)
	if err != nil {
		return 0, fmt.Errorf("set suggestion status: %w", err)
	}
	return res.RowsAffected()
}
