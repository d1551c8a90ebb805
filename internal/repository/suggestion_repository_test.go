package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightreel/cineclub-api/internal/models"
)

func TestCreateSuggestionForcesPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)

	mock.ExpectExec("INSERT INTO suggestions").WillReturnResult(sqlmock.NewResult(1, 1))

	suggestion := &models.Suggestion{
		UserID:        "user-1",
		ExternalRef:   "tt0111161",
		Title:         "The Shawshank Redemption",
		Pitch:         "Hope.",
		WeekSuggested: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:        models.SuggestionAccepted, // client-supplied status is ignored
	}
	require.NoError(t, repo.Create(context.Background(), suggestion))
	assert.Equal(t, models.SuggestionPending, suggestion.Status)
	assert.NotEmpty(t, suggestion.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSuggestionDuplicateWeek(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)

	mock.ExpectExec("INSERT INTO suggestions").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "suggestions_user_id_week_suggested_key"})

	err := repo.Create(context.Background(), &models.Suggestion{
		UserID:        "user-1",
		ExternalRef:   "tt0111161",
		Title:         "The Shawshank Redemption",
		Pitch:         "Hope.",
		WeekSuggested: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusOnlyTouchesPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE suggestions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(models.SuggestionAccepted, sqlmock.AnyArg(), "sg-1", models.SuggestionPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.SetStatus(context.Background(), "sg-1", models.SuggestionAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSuggestionsByWeekAndUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)

	now := time.Now()
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "external_ref", "title", "pitch", "week_suggested", "status", "created_at", "updated_at"}).
		AddRow("sg-1", "user-1", "tt0111161", "The Shawshank Redemption", "Hope.", week, string(models.SuggestionPending), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, external_ref, title, pitch, week_suggested, status, created_at, updated_at FROM suggestions WHERE 1=1 AND user_id = $1 AND week_suggested = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("user-1", week).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM suggestions WHERE 1=1 AND user_id = $1 AND week_suggested = $2")).
		WithArgs("user-1", week).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	suggestions, total, err := repo.List(context.Background(), models.SuggestionFilter{UserID: "user-1", Week: &week})
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
