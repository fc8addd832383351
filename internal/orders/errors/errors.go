package errors

import "errors"

var (
	ErrNotFound = errors.New("order not found")

	// ErrSlotTaken means an active order already holds the same master
	// and instant. Raised by the storage layer, which is the only place
	// the check-then-create sequence is atomic.
	ErrSlotTaken = errors.New("slot already taken")
)
