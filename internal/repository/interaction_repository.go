package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nightreel/cineclub-api/internal/models"
)

// InteractionRepository persists per-member watch statuses and ratings.
// Both tables are keyed by (user_id, film_id) and written exclusively
// through single-statement upserts; the conflict clause is the only race
// guard, so two near-simultaneous writes resolve to last-writer-wins
// without ever duplicating the row.
type InteractionRepository struct {
	db *sqlx.DB
}

// NewInteractionRepository constructs an InteractionRepository.
func NewInteractionRepository(db *sqlx.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// UpsertWatchStatus inserts or updates the member's watch status.
// updated_at is the server's write time, never the client's.
func (r *InteractionRepository) UpsertWatchStatus(ctx context.Context, status *models.WatchStatus) error {
	status.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO watch_statuses (user_id, film_id, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, film_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, status.UserID, status.FilmID, status.Status, status.UpdatedAt); err != nil {
		return fmt.Errorf("upsert watch status: %w", err)
	}
	return nil
}

// GetWatchStatus fetches the member's watch status for a film.
func (r *InteractionRepository) GetWatchStatus(ctx context.Context, userID, filmID string) (*models.WatchStatus, error) {
	const query = `SELECT user_id, film_id, status, updated_at FROM watch_statuses WHERE user_id = $1 AND film_id = $2`
	var status models.WatchStatus
	if err := r.db.GetContext(ctx, &status, query, userID, filmID); err != nil {
		return nil, err
	}
	return &status, nil
}

// UpsertRating inserts or updates the member's rating and reports
// whether the row was newly created. xmax = 0 only holds for a freshly
// inserted tuple, which is what decides rating:new vs rating:update.
func (r *InteractionRepository) UpsertRating(ctx context.Context, rating *models.Rating) (bool, error) {
	now := time.Now().UTC()
	rating.UpdatedAt = now
	const query = `INSERT INTO ratings (user_id, film_id, score, review, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, film_id) DO UPDATE SET score = EXCLUDED.score, review = EXCLUDED.review, updated_at = EXCLUDED.updated_at
		RETURNING created_at, (xmax = 0) AS inserted`
	row := r.db.QueryRowxContext(ctx, query, rating.UserID, rating.FilmID, rating.Score, rating.Review, now)
	var inserted bool
	if err := row.Scan(&rating.CreatedAt, &inserted); err != nil {
		return false, fmt.Errorf("upsert rating: %w", err)
	}
	return inserted, nil
}

// GetRating fetches the member's rating for a film.
func (r *InteractionRepository) GetRating(ctx context.Context, userID, filmID string) (*models.Rating, error) {
	const query = `SELECT user_id, film_id, score, review, created_at, updated_at FROM ratings WHERE user_id = $1 AND film_id = $2`
	var rating models.Rating
	if err := r.db.GetContext(ctx, &rating, query, userID, filmID); err != nil {
		return nil, err
	}
	return &rating, nil
}

// ListRatings returns all ratings for a film, newest first.
func (r *InteractionRepository) ListRatings(ctx context.Context, filmID string) ([]models.Rating, error) {
	const query = `SELECT user_id, film_id, score, review, created_at, updated_at FROM ratings WHERE film_id = $1 ORDER BY updated_at DESC`
	var ratings []models.Rating
	if err := r.db.SelectContext(ctx, &ratings, query, filmID); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}
