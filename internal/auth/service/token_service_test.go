package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeyard/auth-service/internal/auth/domain"
	autherror "github.com/tradeyard/auth-service/internal/errors"
)

func testUser() *domain.User {
	return &domain.User{ID: "user-123", Email: "test@example.com"}
}

func TestTokenService_Issue(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
		accessExpiry  time.Duration
		refreshExpiry time.Duration
	}{
		{
			name:          "default expiries",
			accessSecret:  "test-access-secret-key-123",
			refreshSecret: "test-refresh-secret-key-456",
			accessExpiry:  15 * time.Minute,
			refreshExpiry: 7 * 24 * time.Hour,
		},
		{
			name:          "short secrets still sign",
			accessSecret:  "x",
			refreshSecret: "y",
			accessExpiry:  time.Minute,
			refreshExpiry: time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTokenService(tt.accessSecret, tt.refreshSecret, tt.accessExpiry, tt.refreshExpiry)

			before := time.Now()
			pair, err := ts.Issue(testUser())
			after := time.Now()

			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)
			assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

			assert.True(t, pair.AccessExpiresAt.After(before.Add(tt.accessExpiry-time.Second)))
			assert.True(t, pair.AccessExpiresAt.Before(after.Add(tt.accessExpiry+time.Second)))
			assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

			// The refresh token carries a jti; the access token does not.
			refreshClaims := &JWTCustomClaims{}
			_, err = jwt.ParseWithClaims(pair.RefreshToken, refreshClaims, func(token *jwt.Token) (interface{}, error) {
				return []byte(tt.refreshSecret), nil
			})
			require.NoError(t, err)
			assert.Equal(t, "user-123", refreshClaims.UserID)
			assert.NotEmpty(t, refreshClaims.ID)

			accessClaims := &JWTCustomClaims{}
			_, err = jwt.ParseWithClaims(pair.AccessToken, accessClaims, func(token *jwt.Token) (interface{}, error) {
				return []byte(tt.accessSecret), nil
			})
			require.NoError(t, err)
			assert.Equal(t, "user-123", accessClaims.UserID)
			assert.Empty(t, accessClaims.ID)
		})
	}
}

func TestTokenService_RefreshJTIUniquePerIssue(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	first, err := ts.Issue(testUser())
	require.NoError(t, err)
	second, err := ts.Issue(testUser())
	require.NoError(t, err)

	// Same user, two issuances: tokens must not be correlatable by value.
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestTokenService_VerifyAccess_RoundTrip(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	pair, err := ts.Issue(testUser())
	require.NoError(t, err)

	userID, err := ts.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenService_VerifyAccess_ExpiredVsInvalid(t *testing.T) {
	expired := NewTokenService("access-secret", "refresh-secret", -time.Minute, time.Hour)
	pair, err := expired.Issue(testUser())
	require.NoError(t, err)

	ts := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	// Well-signed but past exp: the caller must be able to tell this apart
	// from garbage, logout depends on it.
	_, err = ts.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, autherror.ErrTokenExpired)

	_, err = ts.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)

	wrongKey := NewTokenService("different-secret", "refresh-secret", 15*time.Minute, time.Hour)
	goodPair, err := wrongKey.Issue(testUser())
	require.NoError(t, err)

	_, err = ts.VerifyAccess(goodPair.AccessToken)
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
}

func TestTokenService_VerifyAccess_RejectsRefreshToken(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	pair, err := ts.Issue(testUser())
	require.NoError(t, err)

	// Signed with the refresh secret, so the access check must fail.
	_, err = ts.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
}

func TestTokenService_VerifyRefresh(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	pair, err := ts.Issue(testUser())
	require.NoError(t, err)

	userID, err := ts.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	// Expiry and malformation collapse into one failure for refresh tokens.
	expired := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, -time.Minute)
	expiredPair, err := expired.Issue(testUser())
	require.NoError(t, err)

	_, err = ts.VerifyRefresh(expiredPair.RefreshToken)
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)

	_, err = ts.VerifyRefresh("garbage")
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
}

func TestTokenService_DecodeExpired(t *testing.T) {
	expired := NewTokenService("access-secret", "refresh-secret", -time.Minute, time.Hour)
	pair, err := expired.Issue(testUser())
	require.NoError(t, err)

	ts := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	userID, expiresAt, err := ts.DecodeExpired(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
	assert.True(t, expiresAt.Before(time.Now()))

	// Garbage is still rejected even on the tolerant path.
	_, _, err = ts.DecodeExpired("garbage")
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)

	wrongKey := NewTokenService("different-secret", "refresh-secret", 15*time.Minute, time.Hour)
	wrongPair, err := wrongKey.Issue(testUser())
	require.NoError(t, err)

	_, _, err = ts.DecodeExpired(wrongPair.AccessToken)
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
}

func TestTokenService_AccessExpiry(t *testing.T) {
	ts := NewTokenService("a", "r", 15*time.Minute, time.Hour)
	assert.Equal(t, 15*time.Minute, ts.AccessExpiry())
}
