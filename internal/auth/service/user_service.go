package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradeyard/auth-service/config"
	"github.com/tradeyard/auth-service/internal/auth/domain"
	"github.com/tradeyard/auth-service/internal/auth/dto"
	autherror "github.com/tradeyard/auth-service/internal/errors"
	"github.com/tradeyard/auth-service/internal/ratelimit"
)

// UserService composes the credential store, session registry, revocation
// list, token service and lockout engine into the register/login/logout/
// refresh/profile flows.
type UserService struct {
	users       domain.UserRepository
	sessions    domain.SessionRepository
	revocations domain.RevocationRepository
	tokens      TokenGenerator
	lockout     *ratelimit.Lockout
	cfg         *config.Config
	log         *zap.Logger
}

func NewUserService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	revocations domain.RevocationRepository,
	tokens TokenGenerator,
	lockout *ratelimit.Lockout,
	cfg *config.Config,
	log *zap.Logger,
) *UserService {
	return &UserService{
		users:       users,
		sessions:    sessions,
		revocations: revocations,
		tokens:      tokens,
		lockout:     lockout,
		cfg:         cfg,
		log:         log,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput, meta dto.SessionMeta) (*domain.User, *dto.TokenPair, error) {
	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.createSession(ctx, user.ID, pair.AccessToken, meta); err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput, meta dto.SessionMeta) (*domain.User, *dto.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, err
	}
	// Missing user and wrong password share one error shape; only the locked
	// state is deliberately disclosed.
	if user == nil {
		return nil, nil, autherror.ErrInvalidCredentials
	}

	if s.isLocked(ctx, user) {
		return nil, nil, autherror.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, nil, s.handleFailedLogin(ctx, user)
	}

	now := time.Now()
	if err := s.lockout.RecordSuccess(ctx, user.ID); err != nil {
		// Counter store down: the durable reset below still clears the flag.
		s.log.Warn("failed to reset lockout counters", zap.String("user_id", user.ID), zap.Error(err))
	}
	if err := s.users.ResetLoginState(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}
	user.LoginAttempts = 0
	user.IsLocked = false
	user.LastLogin = &now

	count, err := s.sessions.CountActiveSessions(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if count >= s.cfg.MaxActiveSessions {
		return nil, nil, autherror.ErrTooManySessions
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.createSession(ctx, user.ID, pair.AccessToken, meta); err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

func (s *UserService) handleFailedLogin(ctx context.Context, user *domain.User) error {
	if err := s.users.RecordFailedAttempt(ctx, user.ID, time.Now()); err != nil {
		s.log.Error("failed to record login attempt", zap.String("user_id", user.ID), zap.Error(err))
	}

	locked, failures, err := s.lockout.RecordFailure(ctx, user.ID)
	if err != nil {
		// Degrade open: with the counter store unreachable the attempt is not
		// counted toward lockout, but the credential check already failed.
		s.log.Warn("lockout engine unavailable, failed attempt not counted",
			zap.String("user_id", user.ID), zap.Error(err))
		return autherror.ErrInvalidCredentials
	}

	if !locked {
		s.log.Info("failed login attempt",
			zap.String("user_id", user.ID), zap.Int("failures", failures))
		return autherror.ErrInvalidCredentials
	}

	// Durable fallback so the lock still holds if the fast store becomes
	// unreachable during the lock window.
	if err := s.users.SetLocked(ctx, user.ID, true); err != nil {
		s.log.Error("failed to persist lock flag", zap.String("user_id", user.ID), zap.Error(err))
	}

	return autherror.ErrAccountLocked
}

// isLocked treats the fast store as authoritative whenever it answers: once
// the TTL-bounded lock entry expires the account is loginable again, even
// though the durable is_locked flag still dangles until the next successful
// login (ResetLoginState) or an operator unlock clears it. The durable flag
// only decides when the store itself is unreachable.
func (s *UserService) isLocked(ctx context.Context, user *domain.User) bool {
	locked, err := s.lockout.IsLocked(ctx, user.ID)
	if err != nil {
		s.log.Warn("lock check degraded to durable flag",
			zap.String("user_id", user.ID), zap.Error(err))
		return user.IsLocked
	}
	return locked
}

// Logout accepts expired access tokens (a session whose token aged out must
// still be closable) but rejects garbage. It is idempotent: revoking an
// already-revoked token succeeds.
func (s *UserService) Logout(ctx context.Context, accessToken string) error {
	userID, expiresAt, err := s.tokens.DecodeExpired(accessToken)
	if err != nil {
		return autherror.ErrTokenInvalid
	}

	if err := s.revocations.RevokeToken(ctx, accessToken, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	session, err := s.sessions.DeleteSessionByToken(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fields := []zap.Field{zap.String("user_id", userID)}
	if session != nil {
		fields = append(fields, zap.String("session_id", session.ID))
	}
	s.log.Info("access token revoked", fields...)

	// Opportunistic cleanup keeps the denylist bounded by token lifetime.
	if err := s.revocations.PurgeExpiredTokens(ctx); err != nil {
		s.log.Warn("failed to purge expired revoked tokens", zap.Error(err))
	}

	return nil
}

// Refresh mints a new access token. The refresh token is not rotated.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", autherror.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", autherror.ErrUserNotFound
	}

	accessToken, _, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

// Authenticate resolves a bearer token to its user: stateless verification
// first, then the revocation list, then the credential store.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	userID, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsTokenRevoked(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, autherror.ErrTokenRevoked
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.sessions.ListActiveSessions(ctx, userID)
}

// RevokeSession deletes one of the caller's own sessions. Cross-user attempts
// report not-found rather than forbidden, so session ids leak nothing.
func (s *UserService) RevokeSession(ctx context.Context, sessionID, userID string) error {
	deleted, err := s.sessions.DeleteOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return autherror.ErrSessionNotFound
	}

	s.log.Info("session revoked",
		zap.String("user_id", userID), zap.String("session_id", sessionID))
	return nil
}

// UnlockAccount clears both lock layers. TTL expiry in the fast store leaves
// the durable flag set, so operators need this to reconcile.
func (s *UserService) UnlockAccount(ctx context.Context, userID string) error {
	if err := s.lockout.RecordSuccess(ctx, userID); err != nil {
		s.log.Warn("failed to clear fast-store lock", zap.String("user_id", userID), zap.Error(err))
	}

	if err := s.users.SetLocked(ctx, userID, false); err != nil {
		return err
	}

	s.log.Warn("account unlocked by operator", zap.String("user_id", userID))
	return nil
}

func (s *UserService) createSession(ctx context.Context, userID, accessToken string, meta dto.SessionMeta) error {
	now := time.Now()
	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Token:      accessToken,
		Device:     meta.Device,
		Browser:    meta.Browser,
		Platform:   meta.Platform,
		IPAddress:  meta.IPAddress,
		Location:   meta.Location,
		UserAgent:  meta.UserAgent,
		LoginTime:  now,
		LastActive: now,
		IsActive:   true,
	}

	return s.sessions.CreateSession(ctx, session)
}
