package repository

import (
	"context"

	"masterbook/pkg/model"
)

// Repository persists accounts and their login sessions. CreateUser
// must reject a duplicate email atomically with ErrEmailTaken; emails
// are stored normalized (lowercase), so lookups are exact-match.
type Repository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// ListMasters returns master accounts, optionally filtered by a
	// case-insensitive substring of the name or email.
	ListMasters(ctx context.Context, search string) ([]model.User, error)

	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}
