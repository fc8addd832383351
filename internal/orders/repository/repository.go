package repository

import (
	"context"
	"time"

	"masterbook/pkg/model"
)

// Repository persists orders. Create must atomically reject a second
// active order for the same (master, instant) pair with ErrSlotTaken;
// each adapter brings its own mechanism (store-wide mutex for the file
// adapter, a partial unique index for postgres).
type Repository interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetDetailsByID(ctx context.Context, id string) (*model.OrderDetails, error)

	// Update rewrites the mutable fields of an existing order: status,
	// status_changed_at and reject_reason.
	Update(ctx context.Context, o *model.Order) error

	ListByMaster(ctx context.Context, masterID string) ([]model.OrderDetails, error)
	ListByClient(ctx context.Context, clientID string) ([]model.OrderDetails, error)

	// ListActiveByMasterBetween returns the master's active orders with
	// desired_at in [from, to).
	ListActiveByMasterBetween(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error)

	// CountOpenByService reports how many NEW or ACCEPTED orders still
	// reference a service; the catalog uses it to guard deletions.
	// Completed and terminal orders do not block a delete.
	CountOpenByService(ctx context.Context, serviceID string) (int64, error)
}
