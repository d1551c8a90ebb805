package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/realtime"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
)

type discussionRepository interface {
	Create(ctx context.Context, item *models.DiscussionItem) error
	FindByID(ctx context.Context, id string) (*models.DiscussionItem, error)
	ListByFilm(ctx context.Context, filmID string) ([]models.DiscussionItem, error)
	DeleteTree(ctx context.Context, id string) ([]string, error)
	SetHighlight(ctx context.Context, id string, highlighted bool) (int64, error)
}

// PostDiscussionRequest creates a comment or reaction on a film.
type PostDiscussionRequest struct {
	Kind     models.DiscussionKind `json:"kind" validate:"required,oneof=COMMENT REACTION"`
	Body     string                `json:"body" validate:"required,max=4000"`
	ParentID *string               `json:"parent_id,omitempty"`
}

// DeletedDiscussion reports a deletion: the requested item plus every
// descendant removed with it, so clients can reconcile their trees.
type DeletedDiscussion struct {
	ID         string   `json:"id"`
	RemovedIDs []string `json:"removed_ids"`
}

// DiscussionService owns the per-film discussion tree: threaded
// comments, emoji reactions, moderation deletes and highlights.
type DiscussionService struct {
	repo      discussionRepository
	films     interactionFilmLookup
	events    eventPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDiscussionService creates a discussion service.
func NewDiscussionService(repo discussionRepository, films interactionFilmLookup, events eventPublisher, validate *validator.Validate, logger *zap.Logger) *DiscussionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscussionService{repo: repo, films: films, events: events, validator: validate, logger: logger}
}

// Post creates a comment or reaction. Replies and reactions must name a
// parent on the same film; reactions cannot be replied to, which keeps
// the tree depth bounded in practice without a hard limit.
func (s *DiscussionService) Post(ctx context.Context, authorID, filmID string, req PostDiscussionRequest) (*models.DiscussionItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discussion payload")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "body must not be blank")
	}
	if req.Kind == models.DiscussionReaction && req.ParentID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a reaction must name the item it reacts to")
	}
	if err := s.ensureFilm(ctx, filmID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *req.ParentID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "parent item not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent item")
		}
		if parent.FilmID != filmID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent item belongs to a different film")
		}
		if parent.Kind == models.DiscussionReaction {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot reply to a reaction")
		}
	}

	item := &models.DiscussionItem{
		FilmID:   filmID,
		AuthorID: authorID,
		ParentID: req.ParentID,
		Kind:     req.Kind,
		Body:     req.Body,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save discussion item")
	}

	kind := realtime.EventDiscussionNew
	if item.Kind == models.DiscussionReaction {
		kind = realtime.EventReactionNew
	}
	if s.events != nil {
		s.events.Publish(filmID, kind, item)
	}
	return item, nil
}

// Delete removes an item and its entire subtree. Authors may delete
// their own items; admins may delete anything.
func (s *DiscussionService) Delete(ctx context.Context, actor *models.JWTClaims, id string) (*DeletedDiscussion, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discussion item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion item")
	}
	if item.AuthorID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete this item")
	}

	removed, err := s.repo.DeleteTree(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete discussion item")
	}

	deleted := &DeletedDiscussion{ID: id, RemovedIDs: removed}
	kind := realtime.EventDiscussionUpdate
	if item.Kind == models.DiscussionReaction {
		kind = realtime.EventReactionRemove
	}
	if s.events != nil {
		s.events.Publish(item.FilmID, kind, deleted)
	}
	s.logger.Info("discussion item deleted",
		zap.String("item_id", id),
		zap.String("actor_id", actor.UserID),
		zap.Int("removed", len(removed)))
	return deleted, nil
}

// SetHighlight flags or unflags a comment for the weekly recap.
func (s *DiscussionService) SetHighlight(ctx context.Context, id string, highlighted bool) (*models.DiscussionItem, error) {
	affected, err := s.repo.SetHighlight(ctx, id, highlighted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update highlight")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "discussion item not found")
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion item")
	}
	if s.events != nil {
		s.events.Publish(item.FilmID, realtime.EventHighlightUpdate, item)
	}
	return item, nil
}

// Thread returns a film's discussion as a tree of top-level comments
// with nested replies and grouped reactions.
func (s *DiscussionService) Thread(ctx context.Context, filmID string) ([]DiscussionThread, error) {
	if err := s.ensureFilm(ctx, filmID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByFilm(ctx, filmID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list discussion")
	}
	return buildThreads(items), nil
}

func (s *DiscussionService) ensureFilm(ctx context.Context, filmID string) error {
	if _, err := s.films.FindByID(ctx, filmID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "film not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load film")
	}
	return nil
}

// DiscussionThread mirrors the model type for service consumers.
type DiscussionThread = models.DiscussionThread

type threadNode struct {
	item      models.DiscussionItem
	replies   []*threadNode
	reactions []models.DiscussionItem
}

// buildThreads assembles the flat, created_at-ordered item list into a
// tree of top-level comments with nested replies and grouped reactions.
func buildThreads(items []models.DiscussionItem) []DiscussionThread {
	nodes := make(map[string]*threadNode, len(items))
	roots := make([]*threadNode, 0)

	for i := range items {
		nodes[items[i].ID] = &threadNode{item: items[i]}
	}
	for i := range items {
		node := nodes[items[i].ID]
		if node.item.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.item.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		if node.item.Kind == models.DiscussionReaction {
			parent.reactions = append(parent.reactions, node.item)
		} else {
			parent.replies = append(parent.replies, node)
		}
	}

	threads := make([]DiscussionThread, 0, len(roots))
	for _, node := range roots {
		threads = append(threads, materialize(node))
	}
	return threads
}

func materialize(node *threadNode) DiscussionThread {
	thread := DiscussionThread{DiscussionItem: node.item, Reactions: node.reactions}
	for _, child := range node.replies {
		thread.Replies = append(thread.Replies, materialize(child))
	}
	return thread
}
