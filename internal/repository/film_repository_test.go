package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightreel/cineclub-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func filmRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "external_ref", "year", "poster_url", "week_start", "status", "created_at", "updated_at"}).
		AddRow("film-1", "Seven Samurai", "346", 1954, nil, now, string(models.FilmCurrent), now, now)
}

func TestListFilmsFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFilmRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, external_ref, year, poster_url, week_start, status, created_at, updated_at FROM films WHERE 1=1 AND status = $1 ORDER BY week_start DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.FilmArchived).
		WillReturnRows(filmRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM films WHERE 1=1 AND status = $1")).
		WithArgs(models.FilmArchived).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	films, total, err := repo.List(context.Background(), models.FilmFilter{Status: models.FilmArchived})
	require.NoError(t, err)
	assert.Len(t, films, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCurrent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFilmRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, external_ref, year, poster_url, week_start, status, created_at, updated_at FROM films WHERE status = $1")).
		WithArgs(models.FilmCurrent).
		WillReturnRows(filmRows(time.Now()))

	film, err := repo.FindCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Seven Samurai", film.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFilmTranslatesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFilmRepository(db)

	mock.ExpectExec("INSERT INTO films").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "films_week_start_key"})

	err := repo.Create(context.Background(), &models.Film{
		Title:       "Seven Samurai",
		ExternalRef: "346",
		WeekStart:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:      models.FilmUpcoming,
	})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveReportsRowsTouched(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFilmRepository(db)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE films SET status = $1, updated_at = $2 WHERE week_start = $3 AND status <> $1")).
		WithArgs(models.FilmArchived, sqlmock.AnyArg(), week).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Archive(context.Background(), week)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteOnlyTouchesUpcoming(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFilmRepository(db)

	week := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE films SET status = $1, updated_at = $2 WHERE week_start = $3 AND status = $4")).
		WithArgs(models.FilmCurrent, sqlmock.AnyArg(), week, models.FilmUpcoming).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Promote(context.Background(), week)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
