package models

import "time"

// DiscussionKind distinguishes threaded comments from emoji reactions.
// Reactions are stored as children of the item they react to.
type DiscussionKind string

const (
	DiscussionComment  DiscussionKind = "COMMENT"
	DiscussionReaction DiscussionKind = "REACTION"
)

// DiscussionItem is one node of a film's discussion tree.
type DiscussionItem struct {
	ID            string         `db:"id" json:"id"`
	FilmID        string         `db:"film_id" json:"film_id"`
	AuthorID      string         `db:"author_id" json:"author_id"`
	ParentID      *string        `db:"parent_id" json:"parent_id,omitempty"`
	Kind          DiscussionKind `db:"kind" json:"kind"`
	Body          string         `db:"body" json:"body"`
	IsHighlighted bool           `db:"is_highlighted" json:"is_highlighted"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// DiscussionThread is a top-level comment with its replies and reactions
// grouped for the threaded view.
type DiscussionThread struct {
	DiscussionItem
	Replies   []DiscussionThread `json:"replies,omitempty"`
	Reactions []DiscussionItem   `json:"reactions,omitempty"`
}
