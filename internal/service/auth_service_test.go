package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/pkg/config"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
)

type authUserRepoStub struct {
	user      *models.User
	lastLogin []time.Time
}

func (s *authUserRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) UpdateLastLogin(_ context.Context, _ string, ts time.Time) error {
	s.lastLogin = append(s.lastLogin, ts)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "cineclub-test"}
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "member@club.example",
		PasswordHash: string(hash),
		FullName:     "Club Member",
		Role:         models.RoleMember,
		Active:       true,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := &authUserRepoStub{user: activeUser(t)}
	now := time.Now().UTC().Truncate(time.Second)
	svc := NewAuthService(repo, testJWTConfig(), nil, zap.NewNop(), fixedClock(now))

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "member@club.example", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, int64(3600), resp.ExpiresIn)
	require.Len(t, repo.lastLogin, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleMember, claims.Role)
	require.Equal(t, "Club Member", claims.FullName)
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	repo := &authUserRepoStub{user: activeUser(t)}
	svc := NewAuthService(repo, testJWTConfig(), nil, zap.NewNop(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "member@club.example", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmailIsUnauthorized(t *testing.T) {
	svc := NewAuthService(&authUserRepoStub{}, testJWTConfig(), nil, zap.NewNop(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@club.example", Password: "whatever"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLoginDeactivatedAccountIsForbidden(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	svc := NewAuthService(&authUserRepoStub{user: user}, testJWTConfig(), nil, zap.NewNop(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "member@club.example", Password: "correct horse"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&authUserRepoStub{}, testJWTConfig(), nil, zap.NewNop(), nil)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	repo := &authUserRepoStub{user: activeUser(t)}
	past := time.Now().UTC().Add(-48 * time.Hour)
	svc := NewAuthService(repo, testJWTConfig(), nil, zap.NewNop(), fixedClock(past))

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "member@club.example", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
