package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripStatusType represents one step in the delivery pipeline. The concrete
// stage set and its order are organization-configurable (see ReportStage);
// only the structural stages below have hardcoded meaning to the engine.
type TripStatusType string

const (
	TripStatusNew                 TripStatusType = "NEW"
	TripStatusPendingConfirmation TripStatusType = "PENDING_CONFIRMATION"
	TripStatusConfirmed           TripStatusType = "CONFIRMED"
	TripStatusWaitingForPickup    TripStatusType = "WAITING_FOR_PICKUP"
	TripStatusDelivering          TripStatusType = "DELIVERING"
	TripStatusDelivered           TripStatusType = "DELIVERED"
	TripStatusCompleted           TripStatusType = "COMPLETED"

	// TripStatusCanceled is terminal and reachable from any non-terminal
	// stage. It is not part of the configurable pipeline.
	TripStatusCanceled TripStatusType = "CANCELED"
)

// OrderTrip represents one vehicle/driver assignment fulfilling part or all
// of an order. Trips are never physically deleted; unpublishing a trip
// removes it from all reporting and dispatch views.
type OrderTrip struct {
	ID      string
	OrgID   string
	OrderID string

	// Code is a human-readable identifier unique within the parent order.
	Code string

	VehicleID string
	DriverID  string

	Weight       decimal.Decimal
	PickupDate   time.Time
	DeliveryDate time.Time

	DriverCost        decimal.NullDecimal
	SubcontractorCost decimal.NullDecimal
	BridgeToll        decimal.NullDecimal
	OtherCost         decimal.NullDecimal

	// LastStatusType is denormalized from the status event log: it always
	// equals the type of the trip's most recent TripStatusEvent.
	LastStatusType TripStatusType

	BillOfLadingCode       string
	BillOfLadingReceived   bool
	BillOfLadingReceivedAt time.Time
	BillOfLadingImages     []string

	NotificationScheduledAt time.Time

	Published bool
	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string
}

// TripStatusEvent is an append-only record of a trip entering a stage.
// Events are immutable once written; multiple events may share a type
// (re-confirmations), and the latest event by CreatedAt determines the
// trip's LastStatusType.
type TripStatusEvent struct {
	ID             string
	TripID         string
	Type           TripStatusType
	Note           string
	DriverReportID string
	CreatedAt      time.Time
	CreatedBy      string
}
