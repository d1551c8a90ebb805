package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nightreel/cineclub-api/internal/mail"
	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/repository"
	"github.com/nightreel/cineclub-api/pkg/config"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/jobs"
)

type inviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	FindByCode(ctx context.Context, code string) (*models.Invite, error)
	Redeem(ctx context.Context, code, userID string, now time.Time) (int64, error)
	ReleaseClaim(ctx context.Context, code, userID string) error
	ListPending(ctx context.Context, now time.Time) ([]models.Invite, error)
}

type inviteUserRepository interface {
	Create(ctx context.Context, user *models.User) error
}

// CreateInviteRequest issues a single-use invite to an email address.
type CreateInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RedeemInviteRequest exchanges an invite code for a member account.
type RedeemInviteRequest struct {
	Code     string `json:"code" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
}

// InviteService manages club membership: issuing invite codes, mailing
// them out, and turning a redeemed code into a member account.
type InviteService struct {
	repo      inviteRepository
	users     inviteUserRepository
	mailQueue *jobs.Queue
	cfg       config.InvitesConfig
	validator *validator.Validate
	logger    *zap.Logger
	clock     Clock
}

// NewInviteService creates an invite service. Mail dispatch goes through
// the background queue so a slow relay never blocks the admin's request.
func NewInviteService(repo inviteRepository, users inviteUserRepository, mailer mail.Mailer, cfg config.InvitesConfig, validate *validator.Validate, logger *zap.Logger, clock Clock) *InviteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	s := &InviteService{repo: repo, users: users, cfg: cfg, validator: validate, logger: logger, clock: clock}

	workers := cfg.MailWorkers
	if workers <= 0 {
		workers = 1
	}
	s.mailQueue = jobs.NewQueue("invite-mail", func(ctx context.Context, job jobs.Job) error {
		invite, ok := job.Payload.(*models.Invite)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return mailer.SendInvite(invite.Email, invite.Code, cfg.RedeemURL)
	}, jobs.QueueConfig{Workers: workers, Logger: logger})

	return s
}

// Start begins mail queue workers.
func (s *InviteService) Start(ctx context.Context) {
	s.mailQueue.Start(ctx)
}

// Stop drains mail queue workers.
func (s *InviteService) Stop() {
	s.mailQueue.Stop()
}

// Create issues an invite and queues the email. Code collisions are
// retried; mail failures are retried by the queue and never surface to
// the caller.
func (s *InviteService) Create(ctx context.Context, createdBy string, req CreateInviteRequest) (*models.Invite, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invite payload")
	}

	invite := &models.Invite{
		CreatedBy: createdBy,
		Email:     req.Email,
		ExpiresAt: s.clock().Add(s.cfg.TTL),
	}

	for attempt := 0; ; attempt++ {
		invite.Code = generateInviteCode()
		err := s.repo.Create(ctx, invite)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < 3 {
			continue
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invite")
	}

	if err := s.mailQueue.Enqueue(jobs.Job{ID: invite.ID, Type: "invite-mail", Payload: invite}); err != nil {
		s.logger.Warn("failed to queue invite mail", zap.String("invite_id", invite.ID), zap.Error(err))
	}

	s.logger.Info("invite created", zap.String("invite_id", invite.ID), zap.String("email", req.Email))
	return invite, nil
}

// Redeem claims the code and creates the member account. Claiming comes
// first so two concurrent redeems of the same code cannot both create
// accounts; if account creation then fails, the claim is released and
// the code stays usable.
func (s *InviteService) Redeem(ctx context.Context, req RedeemInviteRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid redemption payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invite code not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invite")
	}

	userID := uuid.NewString()
	claimed, err := s.repo.Redeem(ctx, req.Code, userID, s.clock())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem invite")
	}
	if claimed == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "invite code is expired or already redeemed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.releaseClaim(ctx, req.Code, userID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleMember,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.releaseClaim(ctx, req.Code, userID)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with that email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	s.logger.Info("invite redeemed", zap.String("user_id", user.ID), zap.String("code", req.Code))
	return user, nil
}

// ListPending returns open invites for the admin view.
func (s *InviteService) ListPending(ctx context.Context) ([]models.Invite, error) {
	invites, err := s.repo.ListPending(ctx, s.clock())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invites")
	}
	return invites, nil
}

func (s *InviteService) releaseClaim(ctx context.Context, code, userID string) {
	if err := s.repo.ReleaseClaim(ctx, code, userID); err != nil {
		s.logger.Error("failed to release invite claim",
			zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
	}
}

// generateInviteCode returns a short unambiguous code. 10 random bytes
// base32-encode to a 16-character string.
func generateInviteCode() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
}
