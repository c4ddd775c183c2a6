package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_admin/internal/domain"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(&domain.Account{ID: 42, Role: domain.RoleAdmin}, "s3cret", time.Now())
	require.NoError(t, err)

	claims, err := ParseJWT(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT(&domain.Account{ID: 1}, "s3cret", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = ParseJWT(token, "s3cret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTEmptySecret(t *testing.T) {
	_, err := GenerateJWT(&domain.Account{ID: 1}, "", time.Now())
	assert.Error(t, err)
}
