package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nightreel/cineclub-api/internal/models"
)

// InviteRepository manages single-use membership invites.
type InviteRepository struct {
	db *sqlx.DB
}

// NewInviteRepository constructs an InviteRepository.
func NewInviteRepository(db *sqlx.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = "id, code, created_by, email, expires_at, redeemed_by, redeemed_at, created_at"

// Create inserts a new invite. The unique code index reports collisions
// as ErrDuplicate so the service can regenerate.
func (r *InviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	invite.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO invites (id, code, created_by, email, expires_at, created_at)
		VALUES (:id, :code, :created_by, :email, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invite); err != nil {
		if translated := translateUnique(err); translated == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

// FindByCode fetches an invite by its redemption code.
func (r *InviteRepository) FindByCode(ctx context.Context, code string) (*models.Invite, error) {
	query := fmt.Sprintf("SELECT %s FROM invites WHERE code = $1", inviteColumns)
	var invite models.Invite
	if err := r.db.GetContext(ctx, &invite, query, code); err != nil {
		return nil, err
	}
	return &invite, nil
}

// Redeem claims the code for a user. The WHERE clause carries both
// redeemability conditions, so a second concurrent redeem sees zero
// rows instead of double-claiming.
func (r *InviteRepository) Redeem(ctx context.Context, code, userID string, now time.Time) (int64, error) {
	const query = `UPDATE invites SET redeemed_by = $1, redeemed_at = $2
		WHERE code = $3 AND redeemed_by IS NULL AND expires_at > $2`
	res, err := r.db.ExecContext(ctx, query, userID, now, code)
	if err != nil {
		return 0, fmt.Errorf("redeem invite: %w", err)
	}
	return res.RowsAffected()
}

// ReleaseClaim reverts a redeem claim when account creation fails after
// the claim succeeded, so the code stays usable.
func (r *InviteRepository) ReleaseClaim(ctx context.Context, code, userID string) error {
	const query = `UPDATE invites SET redeemed_by = NULL, redeemed_at = NULL
		WHERE code = $1 AND redeemed_by = $2`
	if _, err := r.db.ExecContext(ctx, query, code, userID); err != nil {
		return fmt.Errorf("release invite claim: %w", err)
	}
	return nil
}

// ListPending returns unredeemed, unexpired invites.
func (r *InviteRepository) ListPending(ctx context.Context, now time.Time) ([]models.Invite, error) {
	query := fmt.Sprintf("SELECT %s FROM invites WHERE redeemed_by IS NULL AND expires_at > $1 ORDER BY created_at DESC", inviteColumns)
	var invites []models.Invite
	if err := r.db.SelectContext(ctx, &invites, query, now); err != nil {
		return nil, fmt.Errorf("list pending invites: %w", err)
	}
	return invites, nil
}
