package realtime

import "time"

// EventKind enumerates the fixed set of events a film channel carries.
type EventKind string

const (
	EventDiscussionNew    EventKind = "discussion:new"
	EventDiscussionUpdate EventKind = "discussion:update"
	EventReactionNew      EventKind = "reaction:new"
	EventReactionRemove   EventKind = "reaction:remove"
	EventRatingNew        EventKind = "rating:new"
	EventRatingUpdate     EventKind = "rating:update"
	EventHighlightUpdate  EventKind = "highlight:update"
)

// Event describes one committed mutation on a film, published to every
// subscriber of that film's channel. Payload carries enough identity
// for clients to reconcile locally without a full refetch.
type Event struct {
	Kind    EventKind   `json:"kind"`
	FilmID  string      `json:"film_id"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Identity names a subscriber for presence tracking. Presence is
// informational only and plays no part in access control.
type Identity struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
}

// PresenceEntry is one member currently subscribed to a channel.
type PresenceEntry struct {
	UserID   string    `json:"user_id"`
	FullName string    `json:"full_name"`
	JoinedAt time.Time `json:"joined_at"`
}
