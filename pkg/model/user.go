package model

import "time"

type Role string

const (
	RoleMaster Role = "master"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleMaster || r == RoleClient
}

// User is an account record. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role" validate:"required,oneof=master client"`
	Name         string    `json:"name" validate:"required,min=2,max=100"`
	Email        string    `json:"email" validate:"required,email,max=200"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a bearer token issued at login.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
