package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authapi/internal/models"
)

func TestPasswordResetGetValid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Now().UTC().Add(-60 * time.Minute)
	created := time.Now().UTC().Add(-10 * time.Minute)

	mock.ExpectQuery(`SELECT id, token, user_id, created, used\s+FROM password_reset_tokens`).
		WithArgs("tok", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_id", "created", "used"}).
			AddRow("r1", "tok", "u1", created, false))

	repo := NewPasswordResetRepository(db)
	got, err := repo.GetValid(context.Background(), "tok", cutoff)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.Used)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetGetValidNoMatch(t *testing.T) {
	// Nonexistent, used and expired tokens all come back as zero rows
	// from the conditional select; the caller sees one error for all
	// three.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Now().UTC().Add(-60 * time.Minute)
	mock.ExpectQuery(`SELECT id, token, user_id, created, used\s+FROM password_reset_tokens`).
		WithArgs("tok", cutoff).
		WillReturnError(sql.ErrNoRows)

	repo := NewPasswordResetRepository(db)
	_, err = repo.GetValid(context.Background(), "tok", cutoff)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetConsume(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Now().UTC().Add(-60 * time.Minute)
	mock.ExpectExec(`UPDATE password_reset_tokens\s+SET used = TRUE`).
		WithArgs("tok", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPasswordResetRepository(db)
	require.NoError(t, repo.Consume(context.Background(), "tok", cutoff))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetConsumeAlreadyUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Now().UTC().Add(-60 * time.Minute)
	mock.ExpectExec(`UPDATE password_reset_tokens\s+SET used = TRUE`).
		WithArgs("tok", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPasswordResetRepository(db)
	err = repo.Consume(context.Background(), "tok", cutoff)
	assert.ErrorIs(t, err, ErrResetTokenSpent)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	repo := NewUserRepository(db)
	err = repo.Create(context.Background(), &models.User{
		ID:           "u1",
		Email:        "a@b.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM tokens").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTokenRepository(db)
	err = repo.Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
