package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nightreel/cineclub-api/internal/models"
)

// FilmRepository manages persistence for the weekly schedule.
type FilmRepository struct {
	db *sqlx.DB
}

// NewFilmRepository constructs a FilmRepository.
func NewFilmRepository(db *sqlx.DB) *FilmRepository {
	return &FilmRepository{db: db}
}

const filmColumns = "id, title, external_ref, year, poster_url, week_start, status, created_at, updated_at"

// List returns films matching filters along with total count.
func (r *FilmRepository) List(ctx context.Context, filter models.FilmFilter) ([]models.Film, int, error) {
	base := "FROM films WHERE 1=1"
	var args []interface{}

	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY week_start %s LIMIT %d OFFSET %d", filmColumns, base, order, size, offset)
	var films []models.Film
	if err := r.db.SelectContext(ctx, &films, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list films: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count films: %w", err)
	}

	return films, total, nil
}

// FindByID fetches a film by ID.
func (r *FilmRepository) FindByID(ctx context.Context, id string) (*models.Film, error) {
	query := fmt.Sprintf("SELECT %s FROM films WHERE id = $1", filmColumns)
	var film models.Film
	if err := r.db.GetContext(ctx, &film, query, id); err != nil {
		return nil, err
	}
	return &film, nil
}

// FindByWeekStart fetches the film scheduled for a given week, if any.
func (r *FilmRepository) FindByWeekStart(ctx context.Context, weekStart time.Time) (*models.Film, error) {
	query := fmt.Sprintf("SELECT %s FROM films WHERE week_start = $1", filmColumns)
	var film models.Film
	if err := r.db.GetContext(ctx, &film, query, weekStart); err != nil {
		return nil, err
	}
	return &film, nil
}

// FindCurrent fetches the single CURRENT film.
func (r *FilmRepository) FindCurrent(ctx context.Context) (*models.Film, error) {
	query := fmt.Sprintf("SELECT %s FROM films WHERE status = $1", filmColumns)
	var film models.Film
	if err := r.db.GetContext(ctx, &film, query, models.FilmCurrent); err != nil {
		return nil, err
	}
	return &film, nil
}

// Create inserts a new scheduled film. The week_start unique index
// rejects double-booking a week; that surfaces as ErrDuplicate.
func (r *FilmRepository) Create(ctx context.Context, film *models.Film) error {
	if film.ID == "" {
		film.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	film.CreatedAt = now
	film.UpdatedAt = now

	const query = `INSERT INTO films (id, title, external_ref, year, poster_url, week_start, status, created_at, updated_at)
		VALUES (:id, :title, :external_ref, :year, :poster_url, :week_start, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, film); err != nil {
		if translated := translateUnique(err); translated == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("create film: %w", err)
	}
	return nil
}

// Archive marks the film of the given week ARCHIVED. Returns the number
// of rows touched; zero means no film was scheduled that week.
func (r *FilmRepository) Archive(ctx context.Context, weekStart time.Time) (int64, error) {
	const query = `UPDATE films SET status = $1, updated_at = $2 WHERE week_start = $3 AND status <> $1`
	res, err := r.db.ExecContext(ctx, query, models.FilmArchived, time.Now().UTC(), weekStart)
	if err != nil {
		return 0, fmt.Errorf("archive film: %w", err)
	}
	return res.RowsAffected()
}

// Promote flips the given week's film from UPCOMING to CURRENT. The
// status guard makes re-promotion a no-op, and the partial unique index
// on CURRENT turns a concurrent double-promote into ErrDuplicate.
func (r *FilmRepository) Promote(ctx context.Context, weekStart time.Time) (int64, error) {
	const query = `UPDATE films SET status = $1, updated_at = $2 WHERE week_start = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, models.FilmCurrent, time.Now().UTC(), weekStart, models.FilmUpcoming)
	if err != nil {
		if translated := translateUnique(err); translated == ErrDuplicate {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("promote film: %w", err)
	}
	return res.RowsAffected()
}
