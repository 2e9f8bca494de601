package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	t.Setenv("JWT_SECRET", "unit-test-secret")
	return NewJWTService()
}

func TestGenerateTokenPairRoundTrip(t *testing.T) {
	svc := newTestJWTService(t)

	pair, err := svc.GenerateTokenPair("u1", "u1@example.com", "ja", []string{"ADMIN", "SALES"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, []string{"ADMIN", "SALES"}, claims.Roles)
	assert.Equal(t, "ja", claims.Lang)
}

func TestRefreshTokenCarriesOnlyUserID(t *testing.T) {
	svc := newTestJWTService(t)

	pair, err := svc.GenerateTokenPair("u1", "u1@example.com", "ja", []string{"ADMIN"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Roles)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	first := newTestJWTService(t)
	pair, err := first.GenerateTokenPair("u1", "u1@example.com", "", nil)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "a-different-secret")
	second := NewJWTService()

	_, err = second.ValidateToken(pair.AccessToken)
	assert.Error(t, err)

	_, err = second.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestRefreshAccessTokenIssuesNewPair(t *testing.T) {
	svc := newTestJWTService(t)
	pair, err := svc.GenerateTokenPair("u1", "u1@example.com", "en", []string{"SALES"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshAccessToken(pair.RefreshToken, "u1@example.com", "en", []string{"SALES", "SUPPORT"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, []string{"SALES", "SUPPORT"}, claims.Roles)

	_, err = svc.RefreshAccessToken("garbage", "u1@example.com", "en", nil)
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("s3cret", "not-a-hash"))
}
