package service

import (
	"testing"
	"time"

	"campus-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_RoundTrip(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "campus-wallet")
	userID := uuid.New()

	token, err := svc.Generate(userID, domain.RoleMerchant)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleMerchant, claims.Role)
}

func TestJWTTokenService_WrongSecret(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "campus-wallet")
	other := NewJWTTokenService("other-secret", time.Hour, "campus-wallet")

	token, err := svc.Generate(uuid.New(), domain.RoleStudent)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret", -time.Minute, "campus-wallet")

	token, err := svc.Generate(uuid.New(), domain.RoleStudent)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "campus-wallet")

	_, err := svc.Validate("not-a-token")
	assert.Error(t, err)
}
