package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/core/id"
)

func testUser() *User {
	return &User{
		ID:       id.New(),
		TenantID: id.New().String(),
		Email:    "sales@mill.example",
		Roles:    []string{"sales"},
	}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, user.TenantID, uc.TenantID)
	assert.Equal(t, user.Email, uc.Email)
	assert.Equal(t, []string{"sales"}, uc.Roles)
	assert.False(t, uc.IsAdmin)
}

func TestJWTService_AdminFlagSurvives(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	user := testUser()
	user.IsAdmin = true

	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, uc.IsAdmin)
}

func TestJWTService_WrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_Garbage(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
