package models

import "time"

// Invite is a single-use membership code. A code is redeemable only
// while expires_at is in the future and redeemed_by is NULL; the redeem
// path guards both conditions in one conditional UPDATE.
type Invite struct {
	ID         string     `db:"id" json:"id"`
	Code       string     `db:"code" json:"code"`
	CreatedBy  string     `db:"created_by" json:"created_by"`
	Email      string     `db:"email" json:"email"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	RedeemedBy *string    `db:"redeemed_by" json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time `db:"redeemed_at" json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
