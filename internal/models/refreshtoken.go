package models

import (
	"time"
)

// RefreshToken as persisted in the database
// The token string itself is the opaque identifier the client holds
type RefreshToken struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Usable reports whether the token may still be exchanged for a new pair
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
