package repository

import (
	"context"
	"database/sql"
	"time"

	"authapi/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	// GetValid returns the reset token iff it exists, is unused, and was
	// created at or after cutoff.
	GetValid(ctx context.Context, token string, cutoff time.Time) (*models.PasswordResetToken, error)
	// Consume marks the token used with the same validity conditions as
	// GetValid, as a single conditional update. When two requests race on
	// the same token, the rows-affected check lets exactly one win.
	Consume(ctx context.Context, token string, cutoff time.Time) error
}

type passwordResetRepository struct {
	db DBTX
}

func NewPasswordResetRepository(db DBTX) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, token, user_id, created, used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created
	`

	return r.db.QueryRowContext(ctx, query, token.ID, token.Token, token.UserID, token.Created, token.Used).Scan(&token.Created)
}

func (r *passwordResetRepository) GetValid(ctx context.Context, token string, cutoff time.Time) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, token, user_id, created, used
		FROM password_reset_tokens
		WHERE token = $1
		AND used = FALSE
		AND created >= $2
	`

	var t models.PasswordResetToken
	err := r.db.QueryRowContext(ctx, query, token, cutoff).Scan(&t.ID, &t.Token, &t.UserID, &t.Created, &t.Used)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, token string, cutoff time.Time) error {
	query := `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token = $1
		AND used = FALSE
		AND created >= $2
	`

	res, err := r.db.ExecContext(ctx, query, token, cutoff)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrResetTokenSpent
	}
	return nil
}
