package repository

import (
	"context"

	"masterbook/pkg/model"
)

// Repository stores one Availability aggregate per master. Put is a
// whole-object replacement: the schedule is a self-service document
// and last-writer-wins is the accepted policy.
type Repository interface {
	Get(ctx context.Context, masterID string) (*model.Availability, error)
	Put(ctx context.Context, av *model.Availability) error
}
