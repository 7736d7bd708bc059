package models

import "time"

// PasswordResetToken rows are never deleted; a token past its TTL or
// with Used set is simply no longer accepted.
type PasswordResetToken struct {
	ID      string
	Token   string
	UserID  string
	Created time.Time
	Used    bool
}
