package models

import (
	"time"
)

// IdentityClaims carried by a verified access token
// Either fully populated or not returned at all
type IdentityClaims struct {
	UserID    int64
	Username  string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by the auth service on login, register and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
