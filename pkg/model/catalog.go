package model

import "time"

// Category groups services.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,min=2,max=100"`
	CreatedAt time.Time `json:"created_at"`
}

// Service is something a master offers under a category.
type Service struct {
	ID          string    `json:"id"`
	MasterID    string    `json:"master_id"`
	CategoryID  string    `json:"category_id" validate:"required"`
	Title       string    `json:"title" validate:"required,min=2,max=150"`
	Description string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       float64   `json:"price" validate:"required,min=0"`
	CreatedAt   time.Time `json:"created_at"`
}

// ServiceDetails is a service joined with the names a listing needs.
type ServiceDetails struct {
	Service
	CategoryName    string `json:"category_name"`
	MasterName      string `json:"master_name"`
	CompletedOrders int64  `json:"completed_orders"`
}
