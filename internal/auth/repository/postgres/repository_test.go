package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeyard/auth-service/internal/auth/domain"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepository(mock)
}

func userRows(mock pgxmock.PgxPoolIface, u domain.User) *pgxmock.Rows {
	return mock.NewRows([]string{
		"id", "name", "email", "password_hash", "login_attempts", "is_locked",
		"last_login_attempt", "last_login", "created_at",
	}).AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.LoginAttempts, u.IsLocked,
		u.LastLoginAttempt, u.LastLogin, u.CreatedAt)
}

func TestPostgresRepository_GetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		want := domain.User{
			ID:           "user-1",
			Name:         "Alice",
			Email:        "alice@example.com",
			PasswordHash: "hash",
			CreatedAt:    time.Now(),
		}

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("alice@example.com").
			WillReturnRows(userRows(mock, want))

		got, err := repo.GetByEmail(context.Background(), "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Email, got.Email)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found returns nil without error", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, got)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("alice@example.com").
			WillReturnError(errors.New("connection reset"))

		got, err := repo.GetByEmail(context.Background(), "alice@example.com")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "failed to get user")
	})
}

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, repo := newMockRepo(t)

	want := domain.User{ID: "user-1", Name: "Alice", Email: "alice@example.com", CreatedAt: time.Now()}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("user-1").
		WillReturnRows(userRows(mock, want))

	got, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, repo := newMockRepo(t)

	user := &domain.User{
		ID:           "user-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(user.ID, user.Name, user.Email, user.PasswordHash,
			user.LoginAttempts, user.IsLocked, user.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LoginStateUpdates(t *testing.T) {
	t.Run("record failed attempt", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		at := time.Now()

		mock.ExpectExec(regexp.QuoteMeta("login_attempts = login_attempts + 1")).
			WithArgs("user-1", at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.RecordFailedAttempt(context.Background(), "user-1", at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reset login state", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		at := time.Now()

		mock.ExpectExec(regexp.QuoteMeta("login_attempts = 0")).
			WithArgs("user-1", at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.ResetLoginState(context.Background(), "user-1", at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set locked", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("SET is_locked = $2")).
			WithArgs("user-1", true).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetLocked(context.Background(), "user-1", true))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_CreateSession(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	s := &domain.Session{
		ID:         "sess-1",
		UserID:     "user-1",
		Token:      "access-token",
		Device:     "Desktop",
		Browser:    "Chrome",
		Platform:   "Linux",
		IPAddress:  "203.0.113.7",
		Location:   "Berlin, DE",
		UserAgent:  "Mozilla/5.0",
		LoginTime:  now,
		LastActive: now,
		IsActive:   true,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs(s.ID, s.UserID, s.Token, s.Device, s.Browser, s.Platform,
			s.IPAddress, s.Location, s.UserAgent, s.LoginTime, s.LastActive, s.IsActive).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateSession(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListActiveSessions(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	rows := mock.NewRows([]string{
		"id", "user_id", "device", "browser", "platform", "ip_address",
		"location", "user_agent", "login_time", "last_active", "is_active",
	}).
		AddRow("sess-2", "user-1", "Mobile", "Safari", "iOS", "198.51.100.2",
			"Unknown", "Mozilla/5.0", now, now, true).
		AddRow("sess-1", "user-1", "Desktop", "Chrome", "Linux", "203.0.113.7",
			"Berlin, DE", "Mozilla/5.0", now.Add(-time.Hour), now, true)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions")).
		WithArgs("user-1").
		WillReturnRows(rows)

	sessions, err := repo.ListActiveSessions(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "sess-2", sessions[0].ID)
	assert.Equal(t, "sess-1", sessions[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CountActiveSessions(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions")).
		WithArgs("user-1").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActiveSessions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DeleteSessionByToken(t *testing.T) {
	t.Run("deletes and returns the session", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		now := time.Now()

		rows := mock.NewRows([]string{
			"id", "user_id", "device", "browser", "platform", "ip_address",
			"location", "user_agent", "login_time", "last_active", "is_active",
		}).AddRow("sess-1", "user-1", "Desktop", "Chrome", "Linux", "203.0.113.7",
			"Berlin, DE", "Mozilla/5.0", now, now, true)

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM sessions")).
			WithArgs("access-token").
			WillReturnRows(rows)

		session, err := repo.DeleteSessionByToken(context.Background(), "access-token")
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, "sess-1", session.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing session is not an error", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM sessions")).
			WithArgs("unknown-token").
			WillReturnError(pgx.ErrNoRows)

		session, err := repo.DeleteSessionByToken(context.Background(), "unknown-token")
		assert.NoError(t, err)
		assert.Nil(t, session)
	})
}

func TestPostgresRepository_DeleteOwnedSession(t *testing.T) {
	t.Run("owned session is deleted", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1 AND user_id = $2")).
			WithArgs("sess-1", "user-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		deleted, err := repo.DeleteOwnedSession(context.Background(), "sess-1", "user-1")
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("other user's session reports not deleted", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1 AND user_id = $2")).
			WithArgs("sess-1", "user-2").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		deleted, err := repo.DeleteOwnedSession(context.Background(), "sess-1", "user-2")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestPostgresRepository_RevocationList(t *testing.T) {
	t.Run("revoke is idempotent", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		expiresAt := time.Now().Add(15 * time.Minute)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
			WithArgs("the-token", expiresAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		// Second insert conflicts and affects zero rows, still no error.
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
			WithArgs("the-token", expiresAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		require.NoError(t, repo.RevokeToken(context.Background(), "the-token", expiresAt))
		require.NoError(t, repo.RevokeToken(context.Background(), "the-token", expiresAt))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("is token revoked", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM revoked_tokens")).
			WithArgs("the-token").
			WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

		revoked, err := repo.IsTokenRevoked(context.Background(), "the-token")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("purge expired", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens")).
			WillReturnResult(pgxmock.NewResult("DELETE", 4))

		require.NoError(t, repo.PurgeExpiredTokens(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
