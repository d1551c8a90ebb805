package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nightreel/cineclub-api/internal/models"
)

// DiscussionRepository manages a film's comment/reaction tree.
type DiscussionRepository struct {
	db *sqlx.DB
}

// NewDiscussionRepository constructs a DiscussionRepository.
func NewDiscussionRepository(db *sqlx.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

const discussionColumns = "id, film_id, author_id, parent_id, kind, body, is_highlighted, created_at"

// Create inserts a new discussion item.
func (r *DiscussionRepository) Create(ctx context.Context, item *models.DiscussionItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO discussion_items (id, film_id, author_id, parent_id, kind, body, is_highlighted, created_at)
		VALUES (:id, :film_id, :author_id, :parent_id, :kind, :body, :is_highlighted, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create discussion item: %w", err)
	}
	return nil
}

// FindByID fetches a discussion item by ID.
func (r *DiscussionRepository) FindByID(ctx context.Context, id string) (*models.DiscussionItem, error) {
	query := fmt.Sprintf("SELECT %s FROM discussion_items WHERE id = $1", discussionColumns)
	var item models.DiscussionItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByFilm returns every item of a film's discussion, oldest first so
// the service can assemble threads in order.
func (r *DiscussionRepository) ListByFilm(ctx context.Context, filmID string) ([]models.DiscussionItem, error) {
	query := fmt.Sprintf("SELECT %s FROM discussion_items WHERE film_id = $1 ORDER BY created_at ASC", discussionColumns)
	var items []models.DiscussionItem
	if err := r.db.SelectContext(ctx, &items, query, filmID); err != nil {
		return nil, fmt.Errorf("list discussion items: %w", err)
	}
	return items, nil
}

// DeleteTree removes an item and its whole subtree in one statement,
// returning the removed ids so clients can reconcile from the event
// payload. The recursion is explicit rather than delegated to a foreign
// key cascade.
func (r *DiscussionRepository) DeleteTree(ctx context.Context, id string) ([]string, error) {
	const query = `WITH RECURSIVE subtree AS (
			SELECT id FROM discussion_items WHERE id = $1
			UNION ALL
			SELECT d.id FROM discussion_items d INNER JOIN subtree s ON d.parent_id = s.id
		)
		DELETE FROM discussion_items WHERE id IN (SELECT id FROM subtree) RETURNING id`
	var removed []string
	if err := r.db.SelectContext(ctx, &removed, query, id); err != nil {
		return nil, fmt.Errorf("delete discussion tree: %w", err)
	}
	return removed, nil
}

// SetHighlight toggles the highlight flag. Returns rows touched so the
// caller can distinguish a missing item.
func (r *DiscussionRepository) SetHighlight(ctx context.Context, id string, highlighted bool) (int64, error) {
	const query = `UPDATE discussion_items SET is_highlighted = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, highlighted, id)
	if err != nil {
		return 0, fmt.Errorf("set highlight: %w", err)
	}
	return res.RowsAffected()
}

// ListHighlighted returns a film's highlighted comments for the recap.
func (r *DiscussionRepository) ListHighlighted(ctx context.Context, filmID string) ([]models.DiscussionItem, error) {
	query := fmt.Sprintf("SELECT %s FROM discussion_items WHERE film_id = $1 AND is_highlighted = TRUE ORDER BY created_at ASC", discussionColumns)
	var items []models.DiscussionItem
	if err := r.db.SelectContext(ctx, &items, query, filmID); err != nil {
		return nil, fmt.Errorf("list highlighted items: %w", err)
	}
	return items, nil
}
