package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightreel/cineclub-api/internal/models"
)

func TestCreateInviteCodeCollision(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInviteRepository(db)

	mock.ExpectExec("INSERT INTO invites").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "invites_code_key"})

	invite := &models.Invite{Code: "TAKEN", CreatedBy: "admin-1", ExpiresAt: time.Now().Add(72 * time.Hour)}
	err := repo.Create(context.Background(), invite)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemGuardsAgainstDoubleClaim(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInviteRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE invites SET redeemed_by").
		WithArgs("user-1", now, "CODE123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.Redeem(context.Background(), "CODE123", "user-1", now)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseClaimClearsRedemption(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInviteRepository(db)

	mock.ExpectExec("UPDATE invites SET redeemed_by = NULL").
		WithArgs("CODE123", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseClaim(context.Background(), "CODE123", "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
