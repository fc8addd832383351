package model

import "time"

type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusDone      OrderStatus = "DONE"
	StatusCancelled OrderStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that occupy a slot for conflict
// purposes. DONE stays busy so a completed historical slot can never
// be re-booked.
var ActiveStatuses = []OrderStatus{StatusNew, StatusAccepted, StatusDone}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusAccepted, StatusRejected, StatusDone, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Active() bool {
	return s == StatusNew || s == StatusAccepted || s == StatusDone
}

// Order is one client's request for a service at a specific instant.
// DesiredAt is immutable after creation; the record is never deleted,
// only moved through the status machine.
type Order struct {
	ID              string      `json:"id"`
	ServiceID       string      `json:"service_id" validate:"required"`
	MasterID        string      `json:"master_id"`
	ClientID        string      `json:"client_id"`
	DesiredAt       time.Time   `json:"desired_at" validate:"required"`
	Comment         string      `json:"comment,omitempty" validate:"omitempty,max=1000"`
	Status          OrderStatus `json:"status"`
	StatusChangedAt time.Time   `json:"status_changed_at"`
	RejectReason    string      `json:"reject_reason,omitempty" validate:"omitempty,max=500"`
	CreatedAt       time.Time   `json:"created_at"`
}

// OrderDetails is an order joined with the names a listing needs.
type OrderDetails struct {
	Order
	ServiceTitle string  `json:"service_title"`
	ServicePrice float64 `json:"service_price"`
	MasterName   string  `json:"master_name"`
	ClientName   string  `json:"client_name"`
}

// CanTransition reports whether an actor with the given role may move
// an order from one status to another. Masters triage NEW orders and
// close out ACCEPTED ones; clients may only cancel while the order is
// still active and not completed.
func CanTransition(role Role, from, to OrderStatus) bool {
	switch role {
	case RoleMaster:
		switch from {
		case StatusNew:
			return to == StatusAccepted || to == StatusRejected
		case StatusAccepted:
			return to == StatusDone || to == StatusCancelled
		}
	case RoleClient:
		if to != StatusCancelled {
			return false
		}
		return from == StatusNew || from == StatusAccepted
	}
	return false
}
