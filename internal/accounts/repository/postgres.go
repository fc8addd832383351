package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	accounterrors "masterbook/internal/accounts/errors"
	"masterbook/pkg/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const userColumns = `id, role, name, email, password_hash, created_at`

func (r *postgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	const q = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, q, u.ID, u.Role, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return accounterrors.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.queryUser(ctx, q, id)
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.queryUser(ctx, q, email)
}

func (r *postgresRepository) queryUser(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Role, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, accounterrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (r *postgresRepository) ListMasters(ctx context.Context, search string) ([]model.User, error) {
	q := `
		SELECT id, role, name, email, created_at
		FROM users
		WHERE role = 'master'`
	args := []any{}

	if needle := strings.TrimSpace(search); needle != "" {
		q += ` AND (name ILIKE $1 OR email ILIKE $1)`
		args = append(args, "%"+needle+"%")
	}
	q += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query masters: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Role, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan master: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate masters: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) CreateSession(ctx context.Context, s *model.Session) error {
	const q = `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, q, s.Token, s.UserID, s.ExpiresAt, s.CreatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetSession(ctx context.Context, token string) (*model.Session, error) {
	const q = `SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`

	var s model.Session
	err := r.pool.QueryRow(ctx, q, token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, accounterrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &s, nil
}

func (r *postgresRepository) DeleteSession(ctx context.Context, token string) error {
	const q = `DELETE FROM sessions WHERE token = $1`

	tag, err := r.pool.Exec(ctx, q, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return accounterrors.ErrSessionNotFound
	}
	return nil
}
