package models

import "time"

// SuggestionStatus tracks triage of a member suggestion. ACCEPTED and
// REJECTED are terminal.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "PENDING"
	SuggestionAccepted SuggestionStatus = "ACCEPTED"
	SuggestionRejected SuggestionStatus = "REJECTED"
)

// Terminal reports whether the status can no longer change.
func (s SuggestionStatus) Terminal() bool {
	return s == SuggestionAccepted || s == SuggestionRejected
}

// Suggestion is a member's pick for a future week. The store enforces
// UNIQUE(user_id, week_suggested): one suggestion per member per week.
type Suggestion struct {
	ID            string           `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"user_id"`
	ExternalRef   string           `db:"external_ref" json:"external_ref"`
	Title         string           `db:"title" json:"title"`
	Pitch         string           `db:"pitch" json:"pitch"`
	WeekSuggested time.Time        `db:"week_suggested" json:"week_suggested"`
	Status        SuggestionStatus `db:"status" json:"status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// SuggestionFilter defines filters for suggestion listings.
type SuggestionFilter struct {
	UserID   string
	Week     *time.Time
	Status   SuggestionStatus
	Page     int
	PageSize int
}
