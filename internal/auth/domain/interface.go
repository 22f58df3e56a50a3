package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	// GetByEmail returns nil, nil when no user exists for the email.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByID returns nil, nil when no user exists for the id.
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	// RecordFailedAttempt increments login_attempts and stamps last_login_attempt.
	RecordFailedAttempt(ctx context.Context, userID string, at time.Time) error
	// ResetLoginState zeroes login_attempts, clears is_locked and sets last_login.
	ResetLoginState(ctx context.Context, userID string, lastLogin time.Time) error
	SetLocked(ctx context.Context, userID string, locked bool) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	ListActiveSessions(ctx context.Context, userID string) ([]Session, error)
	CountActiveSessions(ctx context.Context, userID string) (int, error)
	// DeleteSessionByToken removes the session holding the token and returns
	// it, or nil, nil when no session matches.
	DeleteSessionByToken(ctx context.Context, token string) (*Session, error)
	// DeleteOwnedSession removes a session only when it belongs to userID.
	// Returns false when nothing matched (missing or owned by someone else).
	DeleteOwnedSession(ctx context.Context, sessionID, userID string) (bool, error)
}

type RevocationRepository interface {
	// RevokeToken inserts the token into the denylist. Re-revoking the same
	// token is a no-op, never an error.
	RevokeToken(ctx context.Context, token string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
	// PurgeExpiredTokens drops denylist rows whose expiry has passed.
	PurgeExpiredTokens(ctx context.Context) error
}
