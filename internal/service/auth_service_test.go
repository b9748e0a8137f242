package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
)

type fakeUserRepo struct {
	user      *models.User
	lastLogin *time.Time
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, _ string, ts time.Time) error {
	f.lastLogin = &ts
	return nil
}

func authFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeUserRepo{user: &models.User{
		ID:           "usr-1",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Active:       true,
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "enrollment-api",
	})
	return svc, repo
}

func TestLoginIssuesToken(t *testing.T) {
	svc, repo := authFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "s3cret!"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "usr-1", resp.User.ID)
	assert.NotNil(t, repo.lastLogin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "nope"})

	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "s3cret!"})

	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := authFixture(t)
	repo.user.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "s3cret!"})

	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.ValidateToken("not-a-token")

	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
