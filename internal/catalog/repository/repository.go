package repository

import (
	"context"

	"masterbook/pkg/model"
)

// ServiceFilter narrows a service listing. Zero values mean "no
// constraint"; prices are inclusive bounds. Limit of zero disables
// paging.
type ServiceFilter struct {
	CategoryID string
	MasterID   string
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int
	Offset     int
}

// Repository persists the catalog: global categories and per-master
// services. Category names are unique case-insensitively; CreateCategory
// and UpdateCategory report ErrCategoryNameTaken atomically.
type Repository interface {
	CreateCategory(ctx context.Context, c *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CountServicesByCategory(ctx context.Context, categoryID string) (int64, error)

	CreateService(ctx context.Context, s *model.Service) error
	GetService(ctx context.Context, id string) (*model.Service, error)
	GetServiceDetails(ctx context.Context, id string) (*model.ServiceDetails, error)
	// ListServices returns one page of matching services plus the total
	// match count before paging.
	ListServices(ctx context.Context, filter ServiceFilter) ([]model.ServiceDetails, int64, error)
	UpdateService(ctx context.Context, s *model.Service) error
	DeleteService(ctx context.Context, id string) error
}
