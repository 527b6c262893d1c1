package domain

import "time"

// OrderStatus represents the current status of a freight order.
type OrderStatus string

const (
	OrderStatusReceived   OrderStatus = "RECEIVED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// Order represents a customer freight order. An order is fulfilled by one
// or more trips, each carrying part or all of the order's weight.
type Order struct {
	ID        string
	OrgID     string
	Code      string
	RouteID   string
	Status    OrderStatus
	Published bool
	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string
}
