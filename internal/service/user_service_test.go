package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService() (UserService, *memoryUsers, *memoryBlacklist) {
	users := &memoryUsers{}
	blacklist := &memoryBlacklist{}
	return NewUserService(users, blacklist, token.NewJWTManager("test-secret", 1, 1)), users, blacklist
}

func TestRegister_CreatesUserAndIssuesTokens(t *testing.T) {
	svc, users, _ := newTestUserService()

	user, tokens, err := svc.Register(context.Background(), "ada", "ada@example.com")
	require.NoError(t, err)
	assert.Len(t, user.UserID, 16)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Len(t, users.users, 1)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, _, err := svc.Register(context.Background(), "ada", "ada@example.com")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "ada2", "ada@example.com")
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestRegister_MissingFieldsIsValidationError(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, _, err := svc.Register(context.Background(), "", "ada@example.com")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestLogin_UnknownEmailIsNotFound(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, _, err := svc.Login(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestLogout_RevokesAccessToken(t *testing.T) {
	svc, _, blacklist := newTestUserService()
	_, tokens, err := svc.Register(context.Background(), "ada", "ada@example.com")
	require.NoError(t, err)

	revoked, err := svc.IsTokenRevoked(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Logout(context.Background(), tokens.AccessToken))
	revoked, err = svc.IsTokenRevoked(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, blacklist.revoked[tokens.AccessToken] > 0 && blacklist.revoked[tokens.AccessToken] <= time.Hour)
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, tokens, err := svc.Register(context.Background(), "ada", "ada@example.com")
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), tokens.AccessToken)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	pair, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestNewUserID_IsStableForSameInput(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, newUserID("ada", "ada@example.com", now), newUserID("ada", "ada@example.com", now))
	assert.NotEqual(t, newUserID("ada", "ada@example.com", now), newUserID("bob", "ada@example.com", now))
}
