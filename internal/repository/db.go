package repository

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is the slice of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are constructed over it, so a handler can rebind the
// same repository code to an explicit transaction when several
// mutations must commit together.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrTokenNotFound   = errors.New("token not found")
	ErrResetTokenSpent = errors.New("reset token already used or expired")
)
