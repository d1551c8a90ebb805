package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/realtime"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
)

type discussionRepoStub struct {
	items        map[string]*models.DiscussionItem
	listed       []models.DiscussionItem
	deletedIDs   []string
	highlightHit int64
	nextID       int
}

func newDiscussionRepoStub() *discussionRepoStub {
	return &discussionRepoStub{items: make(map[string]*models.DiscussionItem)}
}

func (s *discussionRepoStub) Create(_ context.Context, item *models.DiscussionItem) error {
	s.nextID++
	item.ID = "d-" + strconv.Itoa(s.nextID)
	item.CreatedAt = time.Now().UTC()
	s.items[item.ID] = item
	return nil
}

func (s *discussionRepoStub) FindByID(_ context.Context, id string) (*models.DiscussionItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

func (s *discussionRepoStub) ListByFilm(_ context.Context, _ string) ([]models.DiscussionItem, error) {
	return s.listed, nil
}

func (s *discussionRepoStub) DeleteTree(_ context.Context, id string) ([]string, error) {
	return append([]string{id}, s.deletedIDs...), nil
}

func (s *discussionRepoStub) SetHighlight(_ context.Context, id string, highlighted bool) (int64, error) {
	if item, ok := s.items[id]; ok && s.highlightHit > 0 {
		item.IsHighlighted = highlighted
	}
	return s.highlightHit, nil
}

func memberClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleMember}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestPostCommentPublishesDiscussionNew(t *testing.T) {
	events := &publisherStub{}
	svc := NewDiscussionService(newDiscussionRepoStub(), &filmLookupStub{}, events, nil, zap.NewNop())

	item, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "Loved the long takes.",
	})
	require.NoError(t, err)
	require.Equal(t, models.DiscussionComment, item.Kind)
	require.Len(t, events.events, 1)
	require.Equal(t, realtime.EventDiscussionNew, events.events[0].kind)
}

func TestPostReactionRequiresParent(t *testing.T) {
	svc := NewDiscussionService(newDiscussionRepoStub(), &filmLookupStub{}, nil, nil, zap.NewNop())

	_, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionReaction,
		Body: "🔥",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPostReactionOnCommentPublishesReactionNew(t *testing.T) {
	repo := newDiscussionRepoStub()
	events := &publisherStub{}
	svc := NewDiscussionService(repo, &filmLookupStub{}, events, nil, zap.NewNop())

	parent, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "Great score.",
	})
	require.NoError(t, err)

	reaction, err := svc.Post(context.Background(), "user-2", "film-1", PostDiscussionRequest{
		Kind:     models.DiscussionReaction,
		Body:     "👍",
		ParentID: &parent.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.DiscussionReaction, reaction.Kind)
	require.Equal(t, realtime.EventReactionNew, events.events[1].kind)
}

func TestPostRejectsReplyToReaction(t *testing.T) {
	repo := newDiscussionRepoStub()
	svc := NewDiscussionService(repo, &filmLookupStub{}, nil, nil, zap.NewNop())

	parent, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "Great score.",
	})
	require.NoError(t, err)
	reaction, err := svc.Post(context.Background(), "user-2", "film-1", PostDiscussionRequest{
		Kind:     models.DiscussionReaction,
		Body:     "👍",
		ParentID: &parent.ID,
	})
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), "user-3", "film-1", PostDiscussionRequest{
		Kind:     models.DiscussionComment,
		Body:     "replying to an emoji",
		ParentID: &reaction.ID,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPostRejectsParentFromAnotherFilm(t *testing.T) {
	repo := newDiscussionRepoStub()
	svc := NewDiscussionService(repo, &filmLookupStub{}, nil, nil, zap.NewNop())

	parent, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "On film one.",
	})
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), "user-2", "film-2", PostDiscussionRequest{
		Kind:     models.DiscussionComment,
		Body:     "Cross-film reply.",
		ParentID: &parent.ID,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteByAuthorPublishesRemovedIDs(t *testing.T) {
	repo := newDiscussionRepoStub()
	repo.deletedIDs = []string{"child-1", "child-2"}
	events := &publisherStub{}
	svc := NewDiscussionService(repo, &filmLookupStub{}, events, nil, zap.NewNop())

	item, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "To be deleted.",
	})
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), memberClaims("user-1"), item.ID)
	require.NoError(t, err)
	require.Equal(t, item.ID, deleted.ID)
	require.Len(t, deleted.RemovedIDs, 3)

	last := events.events[len(events.events)-1]
	require.Equal(t, realtime.EventDiscussionUpdate, last.kind)
	require.Equal(t, deleted, last.payload)
}

func TestDeleteByStrangerIsForbidden(t *testing.T) {
	repo := newDiscussionRepoStub()
	svc := NewDiscussionService(repo, &filmLookupStub{}, nil, nil, zap.NewNop())

	item, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "Mine.",
	})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), memberClaims("user-2"), item.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDeleteByAdminIsAllowed(t *testing.T) {
	repo := newDiscussionRepoStub()
	svc := NewDiscussionService(repo, &filmLookupStub{}, &publisherStub{}, nil, zap.NewNop())

	item, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "Off topic.",
	})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), adminClaims(), item.ID)
	require.NoError(t, err)
}

func TestDeleteReactionPublishesReactionRemove(t *testing.T) {
	repo := newDiscussionRepoStub()
	events := &publisherStub{}
	svc := NewDiscussionService(repo, &filmLookupStub{}, events, nil, zap.NewNop())

	parent, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "Comment.",
	})
	require.NoError(t, err)
	reaction, err := svc.Post(context.Background(), "user-2", "film-1", PostDiscussionRequest{
		Kind:     models.DiscussionReaction,
		Body:     "❤️",
		ParentID: &parent.ID,
	})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), memberClaims("user-2"), reaction.ID)
	require.NoError(t, err)
	require.Equal(t, realtime.EventReactionRemove, events.events[len(events.events)-1].kind)
}

func TestSetHighlightPublishesHighlightUpdate(t *testing.T) {
	repo := newDiscussionRepoStub()
	repo.highlightHit = 1
	events := &publisherStub{}
	svc := NewDiscussionService(repo, &filmLookupStub{}, events, nil, zap.NewNop())

	item, err := svc.Post(context.Background(), "user-1", "film-1", PostDiscussionRequest{
		Kind: models.DiscussionComment,
		Body: "Recap material.",
	})
	require.NoError(t, err)

	updated, err := svc.SetHighlight(context.Background(), item.ID, true)
	require.NoError(t, err)
	require.True(t, updated.IsHighlighted)
	require.Equal(t, realtime.EventHighlightUpdate, events.events[len(events.events)-1].kind)
}

func TestSetHighlightUnknownItemIsNotFound(t *testing.T) {
	repo := newDiscussionRepoStub()
	svc := NewDiscussionService(repo, &filmLookupStub{}, nil, nil, zap.NewNop())

	_, err := svc.SetHighlight(context.Background(), "missing", true)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestThreadNestsRepliesAndGroupsReactions(t *testing.T) {
	root := models.DiscussionItem{ID: "c1", FilmID: "film-1", Kind: models.DiscussionComment, Body: "root"}
	reply := models.DiscussionItem{ID: "c2", FilmID: "film-1", Kind: models.DiscussionComment, Body: "reply", ParentID: &root.ID}
	nested := models.DiscussionItem{ID: "c3", FilmID: "film-1", Kind: models.DiscussionComment, Body: "nested", ParentID: &reply.ID}
	reaction := models.DiscussionItem{ID: "r1", FilmID: "film-1", Kind: models.DiscussionReaction, Body: "👍", ParentID: &root.ID}

	repo := newDiscussionRepoStub()
	repo.listed = []models.DiscussionItem{root, reply, nested, reaction}
	svc := NewDiscussionService(repo, &filmLookupStub{}, nil, nil, zap.NewNop())

	threads, err := svc.Thread(context.Background(), "film-1")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Equal(t, "c1", threads[0].ID)
	require.Len(t, threads[0].Reactions, 1)
	require.Len(t, threads[0].Replies, 1)
	require.Equal(t, "c2", threads[0].Replies[0].ID)
	require.Len(t, threads[0].Replies[0].Replies, 1)
	require.Equal(t, "c3", threads[0].Replies[0].Replies[0].ID)
}
