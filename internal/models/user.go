package models

import (
	"time"
)

// User role as stored in the database and embedded in access tokens
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64
	CreatedAt    time.Time
	Username     string
	Email        string
	PasswordHash string
	Role         Role
}
