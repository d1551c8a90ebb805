package models

import "time"

// FilmStatus tracks where a film sits in the weekly rotation.
type FilmStatus string

const (
	FilmUpcoming FilmStatus = "UPCOMING"
	FilmCurrent  FilmStatus = "CURRENT"
	FilmArchived FilmStatus = "ARCHIVED"
)

// Film is one weekly selection. week_start is always a Monday-aligned
// UTC date and is unique across films; at most one film is CURRENT at
// any time (partial unique index on status).
type Film struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	ExternalRef string     `db:"external_ref" json:"external_ref"`
	Year        *int       `db:"year" json:"year,omitempty"`
	PosterURL   *string    `db:"poster_url" json:"poster_url,omitempty"`
	WeekStart   time.Time  `db:"week_start" json:"week_start"`
	Status      FilmStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// FilmFilter defines filters supported by film list endpoints.
type FilmFilter struct {
	Status    FilmStatus
	Page      int
	PageSize  int
	SortOrder string
}
