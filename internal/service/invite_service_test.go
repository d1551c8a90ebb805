package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/repository"
	"github.com/nightreel/cineclub-api/pkg/config"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
)

type inviteRepoStub struct {
	mu        sync.Mutex
	invites   map[string]*models.Invite
	createErr []error
	released  []string
}

func newInviteRepoStub() *inviteRepoStub {
	return &inviteRepoStub{invites: make(map[string]*models.Invite)}
}

func (s *inviteRepoStub) Create(_ context.Context, invite *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.createErr) > 0 {
		err := s.createErr[0]
		s.createErr = s.createErr[1:]
		if err != nil {
			return err
		}
	}
	invite.ID = "inv-1"
	s.invites[invite.Code] = invite
	return nil
}

func (s *inviteRepoStub) FindByCode(_ context.Context, code string) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if invite, ok := s.invites[code]; ok {
		return invite, nil
	}
	return nil, sql.ErrNoRows
}

func (s *inviteRepoStub) Redeem(_ context.Context, code, userID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[code]
	if !ok || invite.RedeemedBy != nil || !invite.ExpiresAt.After(now) {
		return 0, nil
	}
	invite.RedeemedBy = &userID
	invite.RedeemedAt = &now
	return 1, nil
}

func (s *inviteRepoStub) ReleaseClaim(_ context.Context, code, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, code)
	if invite, ok := s.invites[code]; ok && invite.RedeemedBy != nil && *invite.RedeemedBy == userID {
		invite.RedeemedBy = nil
		invite.RedeemedAt = nil
	}
	return nil
}

func (s *inviteRepoStub) ListPending(_ context.Context, now time.Time) ([]models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invite
	for _, invite := range s.invites {
		if invite.RedeemedBy == nil && invite.ExpiresAt.After(now) {
			out = append(out, *invite)
		}
	}
	return out, nil
}

type userRepoStub struct {
	createErr error
	created   []*models.User
}

func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, user)
	return nil
}

type mailerStub struct {
	mu   sync.Mutex
	sent []string
}

func (s *mailerStub) SendInvite(to, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

func newInviteServiceForTest(t *testing.T, repo *inviteRepoStub, users *userRepoStub, mailer *mailerStub) *InviteService {
	t.Helper()
	cfg := config.InvitesConfig{TTL: 7 * 24 * time.Hour, RedeemURL: "https://club.example/join", MailWorkers: 1}
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	svc := NewInviteService(repo, users, mailer, cfg, nil, zap.NewNop(), fixedClock(now))
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func TestCreateInviteGeneratesCodeAndQueuesMail(t *testing.T) {
	repo := newInviteRepoStub()
	mailer := &mailerStub{}
	svc := newInviteServiceForTest(t, repo, &userRepoStub{}, mailer)

	invite, err := svc.Create(context.Background(), "admin-1", CreateInviteRequest{Email: "new@club.example"})
	require.NoError(t, err)
	require.NotEmpty(t, invite.Code)
	require.Equal(t, "admin-1", invite.CreatedBy)
	require.True(t, invite.ExpiresAt.After(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)))

	require.Eventually(t, func() bool {
		mailer.mu.Lock()
		defer mailer.mu.Unlock()
		return len(mailer.sent) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCreateInviteRetriesOnCodeCollision(t *testing.T) {
	repo := newInviteRepoStub()
	repo.createErr = []error{repository.ErrDuplicate}
	svc := newInviteServiceForTest(t, repo, &userRepoStub{}, &mailerStub{})

	invite, err := svc.Create(context.Background(), "admin-1", CreateInviteRequest{Email: "new@club.example"})
	require.NoError(t, err)
	require.NotEmpty(t, invite.Code)
}

func TestRedeemCreatesMemberAccount(t *testing.T) {
	repo := newInviteRepoStub()
	users := &userRepoStub{}
	svc := newInviteServiceForTest(t, repo, users, &mailerStub{})

	invite, err := svc.Create(context.Background(), "admin-1", CreateInviteRequest{Email: "new@club.example"})
	require.NoError(t, err)

	user, err := svc.Redeem(context.Background(), RedeemInviteRequest{
		Code:     invite.Code,
		Email:    "new@club.example",
		Password: "correct horse",
		FullName: "New Member",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleMember, user.Role)
	require.True(t, user.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
	require.NotNil(t, repo.invites[invite.Code].RedeemedBy)
	require.Equal(t, user.ID, *repo.invites[invite.Code].RedeemedBy)
}

func TestRedeemTwiceIsConflict(t *testing.T) {
	repo := newInviteRepoStub()
	svc := newInviteServiceForTest(t, repo, &userRepoStub{}, &mailerStub{})

	invite, err := svc.Create(context.Background(), "admin-1", CreateInviteRequest{Email: "new@club.example"})
	require.NoError(t, err)

	req := RedeemInviteRequest{Code: invite.Code, Email: "new@club.example", Password: "correct horse", FullName: "New Member"}
	_, err = svc.Redeem(context.Background(), req)
	require.NoError(t, err)

	req.Email = "other@club.example"
	_, err = svc.Redeem(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRedeemExpiredCodeIsConflict(t *testing.T) {
	repo := newInviteRepoStub()
	repo.invites["OLD"] = &models.Invite{
		ID: "inv-old", Code: "OLD", Email: "old@club.example",
		ExpiresAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	svc := newInviteServiceForTest(t, repo, &userRepoStub{}, &mailerStub{})

	_, err := svc.Redeem(context.Background(), RedeemInviteRequest{
		Code: "OLD", Email: "old@club.example", Password: "correct horse", FullName: "Old Friend",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRedeemUnknownCodeIsNotFound(t *testing.T) {
	svc := newInviteServiceForTest(t, newInviteRepoStub(), &userRepoStub{}, &mailerStub{})

	_, err := svc.Redeem(context.Background(), RedeemInviteRequest{
		Code: "NOPE", Email: "x@club.example", Password: "correct horse", FullName: "Nobody",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRedeemReleasesClaimWhenEmailTaken(t *testing.T) {
	repo := newInviteRepoStub()
	users := &userRepoStub{createErr: repository.ErrDuplicate}
	svc := newInviteServiceForTest(t, repo, users, &mailerStub{})

	invite, err := svc.Create(context.Background(), "admin-1", CreateInviteRequest{Email: "new@club.example"})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), RedeemInviteRequest{
		Code: invite.Code, Email: "taken@club.example", Password: "correct horse", FullName: "New Member",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	// The claim was rolled back so the code is still redeemable.
	require.Nil(t, repo.invites[invite.Code].RedeemedBy)
	require.Len(t, repo.released, 1)
}
