package repository

import (
	"context"
	"time"

	"freight/internal/domain"
)

// TripRepository defines the persistence operations for order trips.
type TripRepository interface {
	// Create persists a new trip. Returns ErrDuplicateCode if the trip
	// code collides within the parent order.
	Create(ctx context.Context, trip *domain.OrderTrip) error

	// GetByID retrieves a trip by ID. Unpublished trips are not returned.
	GetByID(ctx context.Context, id string) (*domain.OrderTrip, error)

	// Update writes the trip if and only if the persisted updated_at still
	// equals expectedUpdatedAt. The comparison happens inside the UPDATE
	// statement itself. Returns ErrConflict on a mismatch and ErrNotFound
	// if the trip does not exist. On success the trip's UpdatedAt is
	// refreshed in place.
	Update(ctx context.Context, trip *domain.OrderTrip, expectedUpdatedAt time.Time) error

	// AppendStatus persists a new immutable status event.
	AppendStatus(ctx context.Context, event *domain.TripStatusEvent) error

	// ListStatusHistory returns the trip's status events ordered by
	// CreatedAt ascending.
	ListStatusHistory(ctx context.Context, tripID string) ([]domain.TripStatusEvent, error)

	// ListByDriver returns the published trips assigned to a driver within
	// an organization.
	ListByDriver(ctx context.Context, orgID, driverID string) ([]*domain.OrderTrip, error)

	// CountByOrder returns the number of trips linked to an order,
	// published or not. Used for trip code sequencing.
	CountByOrder(ctx context.Context, orderID string) (int, error)
}

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// GetByID retrieves an order by ID. Unpublished orders are not
	// returned.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// Update updates an existing order.
	Update(ctx context.Context, order *domain.Order) error
}

// StageRepository provides the organization's report stage catalog.
type StageRepository interface {
	// ListByOrg returns the organization's stages ordered by DisplayOrder
	// ascending.
	ListByOrg(ctx context.Context, orgID string) ([]domain.ReportStage, error)
}

// RouteRepository provides route reference data.
type RouteRepository interface {
	// GetByID retrieves a route with its nested driver expense lines.
	GetByID(ctx context.Context, id string) (*domain.Route, error)
}

// VehicleRepository provides vehicle reference data.
type VehicleRepository interface {
	// GetByID retrieves a vehicle with its vehicle type.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
}

// TripExpenseRepository defines the persistence operations for trip expense
// lines.
type TripExpenseRepository interface {
	// ListByTrip returns a trip's expense lines.
	ListByTrip(ctx context.Context, tripID string) ([]domain.TripDriverExpense, error)

	// ReplaceForTrip replaces the trip's full expense set with lines.
	ReplaceForTrip(ctx context.Context, tripID string, lines []domain.TripDriverExpense) error
}

// SettingRepository provides organization-level key/value settings.
type SettingRepository interface {
	// Get returns the setting value. Returns ErrNotFound when the key is
	// not configured for the organization.
	Get(ctx context.Context, orgID, key string) (string, error)
}
