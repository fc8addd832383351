package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	accounterrors "masterbook/internal/accounts/errors"
	"masterbook/internal/accounts/repository"
	"masterbook/internal/accounts/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/sanitizer"
)

type RegisterInput struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// LoginResult carries the issued bearer token and the account it
// belongs to.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error

	// Resolve implements middleware.TokenResolver.
	Resolve(ctx context.Context, token string) (*model.User, error)

	ListMasters(ctx context.Context, search string) ([]model.User, error)
	GetMaster(ctx context.Context, id string) (*model.User, error)
}

type accountService struct {
	repo      repository.Repository
	validator *validator.UserValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewAccountService(
	repo repository.Repository,
	validator *validator.UserValidator,
	cfg *config.Config,
) AccountService {
	return &accountService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	user := &model.User{
		ID:        uuid.NewString(),
		Role:      in.Role,
		Name:      sanitizer.NormalizeName(in.Name),
		Email:     sanitizer.NormalizeEmail(in.Email),
		CreatedAt: s.now().UTC(),
	}

	if err := s.validator.Validate(user, in.Password); err != nil {
		s.cfg.Log.Warn("Registration validation failed",
			"email", user.Email,
			"error", err,
		)
		return nil, apperrors.Validation("Registration validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}
	user.PasswordHash = string(hash)

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, accounterrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("An account with this email already exists")
		}
		s.cfg.Log.Error("Failed to create user",
			"email", user.Email,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create account", err)
	}

	s.cfg.Log.Info("Account registered",
		"user_id", user.ID,
		"role", user.Role,
	)
	return user, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.InvalidInput("Email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounterrors.ErrUserNotFound) {
			// Same answer as a bad password: a login probe must not
			// reveal which emails are registered.
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		s.cfg.Log.Error("Failed to look up user for login",
			"error", err,
		)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := newToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	session := &model.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().UTC().Add(s.cfg.SessionTTL),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.cfg.Log.Error("Failed to store session",
			"user_id", user.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID)

	result := &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      *user,
	}
	result.User.PasswordHash = ""
	return result, nil
}

func (s *accountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Unauthorized("missing bearer token")
	}
	if err := s.repo.DeleteSession(ctx, token); err != nil {
		if errors.Is(err, accounterrors.ErrSessionNotFound) {
			// Logging out an already-dead session is fine.
			return nil
		}
		s.cfg.Log.Error("Failed to delete session", "error", err)
		return apperrors.Internal("Failed to log out", err)
	}
	return nil
}

// Resolve exchanges a bearer token for its account. An expired session
// is deleted on sight.
func (s *accountService) Resolve(ctx context.Context, token string) (*model.User, error) {
	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, accounterrors.ErrSessionNotFound) {
			return nil, apperrors.Unauthorized("invalid or expired token")
		}
		return nil, apperrors.Internal("Failed to resolve token", err)
	}

	if session.ExpiresAt.Before(s.now().UTC()) {
		if err := s.repo.DeleteSession(ctx, token); err != nil && !errors.Is(err, accounterrors.ErrSessionNotFound) {
			s.cfg.Log.Warn("Failed to delete expired session", "error", err)
		}
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, accounterrors.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("invalid or expired token")
		}
		return nil, apperrors.Internal("Failed to resolve token", err)
	}
	return user, nil
}

func (s *accountService) ListMasters(ctx context.Context, search string) ([]model.User, error) {
	masters, err := s.repo.ListMasters(ctx, search)
	if err != nil {
		s.cfg.Log.Error("Failed to list masters", "error", err)
		return nil, apperrors.Internal("Failed to list masters", err)
	}
	if masters == nil {
		masters = []model.User{}
	}
	return masters, nil
}

func (s *accountService) GetMaster(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Master ID cannot be empty")
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, accounterrors.ErrUserNotFound) {
			return nil, apperrors.NotFoundWithID("Master", id)
		}
		s.cfg.Log.Error("Failed to get master", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve master", err)
	}
	if user.Role != model.RoleMaster {
		return nil, apperrors.NotFoundWithID("Master", id)
	}

	user.PasswordHash = ""
	return user, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
