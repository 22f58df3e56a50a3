package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/tradeyard/auth-service/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tradeyard/auth-service/internal/auth/domain"
	"github.com/tradeyard/auth-service/internal/auth/dto"
	autherror "github.com/tradeyard/auth-service/internal/errors"
)

type TokenGenerator interface {
	Issue(user *domain.User) (*dto.TokenPair, error)
	// IssueAccess mints a new access token only. Refresh leaves the refresh
	// token in place rather than rotating it.
	IssueAccess(user *domain.User) (string, time.Time, error)
	// VerifyAccess returns the user id carried by a valid access token.
	// Expired-but-well-signed tokens fail with ErrTokenExpired; anything else
	// fails with ErrTokenInvalid. Callers that need the distinction (logout)
	// match with errors.Is.
	VerifyAccess(tokenString string) (string, error)
	VerifyRefresh(tokenString string) (string, error)
	// DecodeExpired extracts user id and expiry from an access token whose
	// signature checks out, even after expiry. Used by logout to denylist
	// tokens for their remaining lifetime.
	DecodeExpired(tokenString string) (userID string, expiresAt time.Time, err error)
	AccessExpiry() time.Duration
}

type TokenService struct {
	accessTokenSecret  string
	refreshTokenSecret string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

func NewTokenService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		accessTokenSecret:  accessSecret,
		refreshTokenSecret: refreshSecret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// Issue mints the access/refresh pair for a user. The refresh token carries a
// fresh random jti so two refresh tokens for the same user are never
// correlatable by value.
func (ts *TokenService) Issue(user *domain.User) (*dto.TokenPair, error) {
	now := time.Now()
	refreshExpiresAt := now.Add(ts.refreshTokenExpiry)

	refreshClaims := JWTCustomClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, accessExpiresAt, err := ts.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		refreshClaims).SignedString([]byte(ts.refreshTokenSecret))
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (ts *TokenService) IssueAccess(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.accessTokenExpiry)

	claims := JWTCustomClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.accessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func (ts *TokenService) VerifyAccess(tokenString string) (string, error) {
	claims, err := ts.parse(tokenString, ts.accessTokenSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", autherror.ErrTokenExpired
		}
		return "", autherror.ErrTokenInvalid
	}
	return claims.UserID, nil
}

// VerifyRefresh does not distinguish expiry from malformation: an expired
// refresh token is just as unusable as a forged one.
func (ts *TokenService) VerifyRefresh(tokenString string) (string, error) {
	claims, err := ts.parse(tokenString, ts.refreshTokenSecret)
	if err != nil {
		return "", autherror.ErrTokenInvalid
	}
	return claims.UserID, nil
}

func (ts *TokenService) DecodeExpired(tokenString string) (string, time.Time, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.accessTokenSecret), nil
	}, jwt.WithoutClaimsValidation())

	if err != nil || !token.Valid {
		return "", time.Time{}, autherror.ErrTokenInvalid
	}

	expiresAt := time.Now().Add(ts.accessTokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return claims.UserID, expiresAt, nil
}

func (ts *TokenService) AccessExpiry() time.Duration {
	return ts.accessTokenExpiry
}

func (ts *TokenService) parse(tokenString, secret string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
