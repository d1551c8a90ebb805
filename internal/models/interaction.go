package models

import "time"

// WatchState is a member's progress through the current film.
type WatchState string

const (
	WatchNotStarted WatchState = "NOT_STARTED"
	WatchWatching   WatchState = "WATCHING"
	WatchWatched    WatchState = "WATCHED"
)

// Valid reports whether the state is one of the known values.
func (s WatchState) Valid() bool {
	switch s {
	case WatchNotStarted, WatchWatching, WatchWatched:
		return true
	}
	return false
}

// WatchStatus is keyed by (user_id, film_id); writes are upserts so the
// pair never duplicates.
type WatchStatus struct {
	UserID    string     `db:"user_id" json:"user_id"`
	FilmID    string     `db:"film_id" json:"film_id"`
	Status    WatchState `db:"status" json:"status"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Rating follows the same composite-key discipline as WatchStatus: one
// row per (user_id, film_id), score 1-10 with an optional review.
type Rating struct {
	UserID    string    `db:"user_id" json:"user_id"`
	FilmID    string    `db:"film_id" json:"film_id"`
	Score     int       `db:"score" json:"score"`
	Review    *string   `db:"review" json:"review,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FilmRatings aggregates a film's ratings for read endpoints.
type FilmRatings struct {
	FilmID  string   `json:"film_id"`
	Average float64  `json:"average"`
	Count   int      `json:"count"`
	Ratings []Rating `json:"ratings"`
}
