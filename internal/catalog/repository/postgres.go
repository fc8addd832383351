package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogerrors "masterbook/internal/catalog/errors"
	"masterbook/pkg/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	const q = `INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, q, c.ID, c.Name, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return catalogerrors.ErrCategoryNameTaken
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	const q = `SELECT id, name, created_at FROM categories WHERE id = $1`

	var c model.Category
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalogerrors.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, name, created_at FROM categories ORDER BY name`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	const q = `UPDATE categories SET name = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, c.ID, c.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return catalogerrors.ErrCategoryNameTaken
		}
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrCategoryNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteCategory(ctx context.Context, id string) error {
	const q = `DELETE FROM categories WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrCategoryNotFound
	}
	return nil
}

func (r *postgresRepository) CountServicesByCategory(ctx context.Context, categoryID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM services WHERE category_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, q, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count services by category: %w", err)
	}
	return count, nil
}

const serviceColumns = `id, master_id, category_id, title, description, price, created_at`

func (r *postgresRepository) CreateService(ctx context.Context, s *model.Service) error {
	const q = `
		INSERT INTO services (` + serviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, q, s.ID, s.MasterID, s.CategoryID, s.Title, s.Description, s.Price, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetService(ctx context.Context, id string) (*model.Service, error) {
	const q = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	var s model.Service
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.MasterID, &s.CategoryID, &s.Title, &s.Description, &s.Price, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalogerrors.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query service: %w", err)
	}
	return &s, nil
}

const serviceDetailsColumns = `
	s.id, s.master_id, s.category_id, s.title, s.description, s.price, s.created_at,
	COALESCE(c.name, ''), COALESCE(u.name, ''),
	(SELECT COUNT(*) FROM orders o WHERE o.service_id = s.id AND o.status = 'DONE')`

const serviceDetailsFrom = `
	FROM services s
	LEFT JOIN categories c ON c.id = s.category_id
	LEFT JOIN users u ON u.id = s.master_id`

func (r *postgresRepository) GetServiceDetails(ctx context.Context, id string) (*model.ServiceDetails, error) {
	q := `SELECT` + serviceDetailsColumns + serviceDetailsFrom + ` WHERE s.id = $1`

	d, err := scanServiceDetails(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalogerrors.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query service details: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) ListServices(ctx context.Context, filter ServiceFilter) ([]model.ServiceDetails, int64, error) {
	// COUNT(*) OVER() carries the pre-paging match total on every row.
	q := `SELECT` + serviceDetailsColumns + `, COUNT(*) OVER()` + serviceDetailsFrom + ` WHERE 1=1`
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		q += fmt.Sprintf(clause, len(args))
	}

	if filter.CategoryID != "" {
		add(` AND s.category_id = $%d`, filter.CategoryID)
	}
	if filter.MasterID != "" {
		add(` AND s.master_id = $%d`, filter.MasterID)
	}
	if needle := strings.TrimSpace(filter.Search); needle != "" {
		args = append(args, "%"+needle+"%")
		n := len(args)
		q += fmt.Sprintf(` AND (s.title ILIKE $%d OR s.description ILIKE $%d)`, n, n)
	}
	if filter.MinPrice != nil {
		add(` AND s.price >= $%d`, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add(` AND s.price <= $%d`, *filter.MaxPrice)
	}
	q += ` ORDER BY s.created_at DESC`

	if filter.Limit > 0 {
		add(` LIMIT $%d`, filter.Limit)
	}
	if filter.Offset > 0 {
		add(` OFFSET $%d`, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var out []model.ServiceDetails
	var total int64
	for rows.Next() {
		var d model.ServiceDetails
		if err := rows.Scan(
			&d.ID, &d.MasterID, &d.CategoryID, &d.Title, &d.Description, &d.Price, &d.CreatedAt,
			&d.CategoryName, &d.MasterName, &d.CompletedOrders, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan service details: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate services: %w", err)
	}
	return out, total, nil
}

func (r *postgresRepository) UpdateService(ctx context.Context, s *model.Service) error {
	const q = `
		UPDATE services
		SET category_id = $2, title = $3, description = $4, price = $5
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, s.ID, s.CategoryID, s.Title, s.Description, s.Price)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrServiceNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteService(ctx context.Context, id string) error {
	const q = `DELETE FROM services WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrServiceNotFound
	}
	return nil
}

func scanServiceDetails(row pgx.Row) (*model.ServiceDetails, error) {
	var d model.ServiceDetails
	err := row.Scan(
		&d.ID, &d.MasterID, &d.CategoryID, &d.Title, &d.Description, &d.Price, &d.CreatedAt,
		&d.CategoryName, &d.MasterName, &d.CompletedOrders,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
