package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	ordererrors "masterbook/internal/orders/errors"
	"masterbook/pkg/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const orderColumns = `id, service_id, master_id, client_id, desired_at, comment, status, status_changed_at, reject_reason, created_at`

// Create relies on the uniq_active_order_slot partial unique index:
// two concurrent inserts for the same (master, instant) race inside
// postgres, and the loser surfaces here as a unique violation.
func (r *postgresRepository) Create(ctx context.Context, o *model.Order) error {
	const q = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, q,
		o.ID, o.ServiceID, o.MasterID, o.ClientID, o.DesiredAt,
		o.Comment, o.Status, o.StatusChangedAt, o.RejectReason, o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ordererrors.ErrSlotTaken
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ordererrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

const detailsQuery = `
	SELECT o.id, o.service_id, o.master_id, o.client_id, o.desired_at,
	       o.comment, o.status, o.status_changed_at, o.reject_reason, o.created_at,
	       COALESCE(s.title, ''), COALESCE(s.price, 0),
	       COALESCE(m.name, ''), COALESCE(c.name, '')
	FROM orders o
	LEFT JOIN services s ON s.id = o.service_id
	LEFT JOIN users m ON m.id = o.master_id
	LEFT JOIN users c ON c.id = o.client_id`

func (r *postgresRepository) GetDetailsByID(ctx context.Context, id string) (*model.OrderDetails, error) {
	q := detailsQuery + ` WHERE o.id = $1`

	d, err := scanDetails(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ordererrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order details: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) Update(ctx context.Context, o *model.Order) error {
	const q = `
		UPDATE orders
		SET status = $2, status_changed_at = $3, reject_reason = $4
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, o.ID, o.Status, o.StatusChangedAt, o.RejectReason)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ordererrors.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListByMaster(ctx context.Context, masterID string) ([]model.OrderDetails, error) {
	q := detailsQuery + ` WHERE o.master_id = $1 ORDER BY o.created_at DESC`
	return r.listDetails(ctx, q, masterID)
}

func (r *postgresRepository) ListByClient(ctx context.Context, clientID string) ([]model.OrderDetails, error) {
	q := detailsQuery + ` WHERE o.client_id = $1 ORDER BY o.created_at DESC`
	return r.listDetails(ctx, q, clientID)
}

func (r *postgresRepository) listDetails(ctx context.Context, q string, args ...any) ([]model.OrderDetails, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query order details: %w", err)
	}
	defer rows.Close()

	var out []model.OrderDetails
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order details: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order details: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) ListActiveByMasterBetween(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error) {
	const q = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE master_id = $1
		  AND status IN ('NEW', 'ACCEPTED', 'DONE')
		  AND desired_at >= $2 AND desired_at < $3
		ORDER BY desired_at`

	rows, err := r.pool.Query(ctx, q, masterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query active orders: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) CountOpenByService(ctx context.Context, serviceID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM orders WHERE service_id = $1 AND status IN ('NEW', 'ACCEPTED')`

	var count int64
	if err := r.pool.QueryRow(ctx, q, serviceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders by service: %w", err)
	}
	return count, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.ServiceID, &o.MasterID, &o.ClientID, &o.DesiredAt,
		&o.Comment, &o.Status, &o.StatusChangedAt, &o.RejectReason, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.DesiredAt = o.DesiredAt.UTC()
	return &o, nil
}

func scanDetails(row pgx.Row) (*model.OrderDetails, error) {
	var d model.OrderDetails
	err := row.Scan(
		&d.ID, &d.ServiceID, &d.MasterID, &d.ClientID, &d.DesiredAt,
		&d.Comment, &d.Status, &d.StatusChangedAt, &d.RejectReason, &d.CreatedAt,
		&d.ServiceTitle, &d.ServicePrice, &d.MasterName, &d.ClientName,
	)
	if err != nil {
		return nil, err
	}
	d.DesiredAt = d.DesiredAt.UTC()
	return &d, nil
}
