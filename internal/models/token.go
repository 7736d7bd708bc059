package models

import "time"

// Token is a persisted bearer session. A session is valid exactly as
// long as its row exists; logout deletes the row.
type Token struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}
