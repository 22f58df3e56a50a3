package postgres

//go:generate mockgen -destination=../../../mocks/mock_repository.go -package=mocks github.com/tradeyard/auth-service/internal/auth/domain UserRepository,SessionRepository,RevocationRepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tradeyard/auth-service/internal/auth/domain"
)

// PgxIface is the subset of pgxpool.Pool the repository uses. pgxmock
// implements it, which keeps the repository tests free of a live database.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name, email, password_hash, login_attempts, is_locked,
	       last_login_attempt, last_login, created_at`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.LoginAttempts, &user.IsLocked, &user.LastLoginAttempt,
		&user.LastLogin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, login_attempts, is_locked, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Name, user.Email, user.PasswordHash, user.LoginAttempts, user.IsLocked, user.CreatedAt)

	return err
}

func (r *PostgresRepository) RecordFailedAttempt(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET login_attempts = login_attempts + 1, last_login_attempt = $2
		WHERE id = $1
	`, userID, at)
	return err
}

func (r *PostgresRepository) ResetLoginState(ctx context.Context, userID string, lastLogin time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET login_attempts = 0, is_locked = FALSE, last_login = $2, last_login_attempt = $2
		WHERE id = $1
	`, userID, lastLogin)
	return err
}

func (r *PostgresRepository) SetLocked(ctx context.Context, userID string, locked bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_locked = $2
		WHERE id = $1
	`, userID, locked)
	return err
}

// --- Session registry ---

func (r *PostgresRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (id, user_id, token, device, browser, platform, ip_address,
	          location, user_agent, login_time, last_active, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.UserID, s.Token, s.Device, s.Browser, s.Platform, s.IPAddress,
		s.Location, s.UserAgent, s.LoginTime, s.LastActive, s.IsActive)
	return err
}

func (r *PostgresRepository) ListActiveSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `
		SELECT id, user_id, device, browser, platform, ip_address, location,
		       user_agent, login_time, last_active, is_active
		FROM sessions
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY login_time DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Device, &s.Browser, &s.Platform,
			&s.IPAddress, &s.Location, &s.UserAgent, &s.LoginTime, &s.LastActive,
			&s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *PostgresRepository) CountActiveSessions(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND is_active = TRUE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) DeleteSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		DELETE FROM sessions
		WHERE token = $1
		RETURNING id, user_id, device, browser, platform, ip_address, location,
		          user_agent, login_time, last_active, is_active;
	`
	var s domain.Session
	err := r.db.QueryRow(ctx, query, token).Scan(&s.ID, &s.UserID, &s.Device,
		&s.Browser, &s.Platform, &s.IPAddress, &s.Location, &s.UserAgent,
		&s.LoginTime, &s.LastActive, &s.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete session by token: %w", err)
	}
	return &s, nil
}

// DeleteOwnedSession scopes the delete to the owner, so a cross-user attempt
// looks identical to a missing session.
func (r *PostgresRepository) DeleteOwnedSession(ctx context.Context, sessionID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM sessions WHERE id = $1 AND user_id = $2
	`, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// --- Token revocation list ---

func (r *PostgresRepository) RevokeToken(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO revoked_tokens (token, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`, token, expiresAt)
	return err
}

func (r *PostgresRepository) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens WHERE token = $1 AND expires_at > now()
		)
	`, token).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return revoked, nil
}

func (r *PostgresRepository) PurgeExpiredTokens(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM revoked_tokens WHERE expires_at <= now()
	`)
	return err
}
