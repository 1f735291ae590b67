package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestUserRepo_CreateNormalizesEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, display_name) VALUES (?,?,?)")).
		WithArgs("ada@example.com", "hash", "ada").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := NewUserRepo(db).Create(context.Background(), "  Ada@Example.COM ", "hash")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), "ada@example.com", "hash")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_CreateOtherError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectExec("INSERT INTO users").WillReturnError(boom)

	_, err := NewUserRepo(db).Create(context.Background(), "ada@example.com", "hash")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,display_name,created_at,updated_at FROM users WHERE email=? LIMIT 1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "display_name", "created_at", "updated_at"}).
			AddRow(7, "ada@example.com", "hash", "Ada", now, now))

	u, err := NewUserRepo(db).GetByEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "Ada", u.DisplayName)
}

func TestUserRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM users WHERE id=").WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepo(db).GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepo_UpdateDisplayName(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET display_name=? WHERE id=?")).
		WithArgs("Ada L.", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewUserRepo(db).UpdateDisplayName(context.Background(), 7, "Ada L."))
}

func TestUserRepo_UpdateUnchangedValueIsNotAMiss(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE users SET display_name").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE id=?")).WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.NoError(t, NewUserRepo(db).UpdateDisplayName(context.Background(), 7, "Ada"))
}

func TestUserRepo_UpdatePasswordHashMissingUser(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs("newhash", uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM users").WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	assert.ErrorIs(t, NewUserRepo(db).UpdatePasswordHash(context.Background(), 8, "newhash"), ErrUserNotFound)
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "ada", DefaultDisplayName("ada@example.com"))
	assert.Equal(t, "noat", DefaultDisplayName("noat"))
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	cols := []string{"user_id", "expires_at", "revoked_at"}
	q := regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1")

	t.Run("valid", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, time.Now().Add(time.Hour), nil))
		id, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
		require.NoError(t, err)
		assert.Equal(t, uint64(7), id)
	})

	t.Run("expired", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, time.Now().Add(-time.Hour), nil))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("revoked", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, time.Now().Add(time.Hour), time.Now()))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("unknown", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").WillReturnRows(sqlmock.NewRows(cols))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestTokenRepo_StoreAndRevoke(t *testing.T) {
	db, mock := newMock(t)
	exp := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)")).
		WithArgs(uint64(7), "h", exp).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=?")).
		WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=?")).
		WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewTokenRepo(db)
	ctx := context.Background()
	require.NoError(t, repo.StoreRefresh(ctx, 7, "h", exp))
	require.NoError(t, repo.RevokeByHash(ctx, "h"))
	require.NoError(t, repo.RevokeAllForUser(ctx, 7))
}
