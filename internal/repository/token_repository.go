package repository

import (
	"context"
	"database/sql"

	"authapi/internal/models"
)

type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	Get(ctx context.Context, token string) (*models.Token, error)
	Delete(ctx context.Context, token string) error
}

type tokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (token, user_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	return r.db.QueryRowContext(ctx, query, token.Token, token.UserID, token.CreatedAt).Scan(&token.CreatedAt)
}

func (r *tokenRepository) Get(ctx context.Context, token string) (*models.Token, error) {
	query := `
		SELECT token, user_id, created_at
		FROM tokens
		WHERE token = $1
	`

	var t models.Token
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.UserID, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) Delete(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE token = $1`, token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	return nil
}
