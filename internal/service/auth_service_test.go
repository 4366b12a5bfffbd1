package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

type mockUserFinder struct {
	user *models.User
	err  error
}

func (m *mockUserFinder) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func testAuthService(users *mockUserFinder) *AuthService {
	return NewAuthService(users, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "fixtrack-api",
	})
}

func hashPassword(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginRoundTrip(t *testing.T) {
	users := &mockUserFinder{user: &models.User{
		ID:           "owner-1",
		Email:        "owner@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		FullName:     "Olive Owner",
		Role:         models.RoleOwner,
		Active:       true,
	}}
	svc := testAuthService(users)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.UserID)
	assert.Equal(t, models.RoleOwner, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	users := &mockUserFinder{user: &models.User{
		ID:           "owner-1",
		Email:        "owner@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleOwner,
		Active:       true,
	}}
	svc := testAuthService(users)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "wrong"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := testAuthService(&mockUserFinder{err: sql.ErrNoRows})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginInactiveAccount(t *testing.T) {
	users := &mockUserFinder{user: &models.User{
		ID:           "renter-1",
		Email:        "renter@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleRenter,
		Active:       false,
	}}
	svc := testAuthService(users)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "renter@example.com", Password: "secret123"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := testAuthService(&mockUserFinder{})
	other := NewAuthService(&mockUserFinder{}, nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour})

	users := &mockUserFinder{user: &models.User{
		ID:           "broker-1",
		Email:        "broker@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleBroker,
		Active:       true,
	}}
	res, err := testAuthService(users).Login(context.Background(), models.LoginRequest{Email: "broker@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = other.ValidateToken(res.AccessToken)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	_, err = svc.ValidateToken("not-a-jwt")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
