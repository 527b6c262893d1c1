package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"freight/internal/domain"
	"freight/internal/repository"
)

const tripColumns = `
	id, org_id, order_id, code, vehicle_id, driver_id, weight,
	pickup_date, delivery_date,
	driver_cost, subcontractor_cost, bridge_toll, other_cost,
	last_status_type,
	bill_of_lading_code, bill_of_lading_received, bill_of_lading_received_at, bill_of_lading_images,
	notification_scheduled_at,
	published, created_at, created_by, updated_at, updated_by
`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.OrderTrip) error {
	query := `
		INSERT INTO order_trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.OrgID,
		trip.OrderID,
		trip.Code,
		nullString(trip.VehicleID),
		nullString(trip.DriverID),
		trip.Weight,
		trip.PickupDate,
		trip.DeliveryDate,
		trip.DriverCost,
		trip.SubcontractorCost,
		trip.BridgeToll,
		trip.OtherCost,
		trip.LastStatusType,
		trip.BillOfLadingCode,
		trip.BillOfLadingReceived,
		nullTime(trip.BillOfLadingReceivedAt),
		pq.Array(trip.BillOfLadingImages),
		nullTime(trip.NotificationScheduledAt),
		trip.Published,
		trip.CreatedAt,
		trip.CreatedBy,
		trip.UpdatedAt,
		trip.UpdatedBy,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicateCode
		}
		return err
	}

	return nil
}

// GetByID retrieves a published trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.OrderTrip, error) {
	query := `SELECT ` + tripColumns + ` FROM order_trips WHERE id = $1 AND published = TRUE`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// Update writes the trip using a compare-and-swap on updated_at. The check
// runs inside the UPDATE itself so there is no read-check-then-write race.
func (r *TripRepository) Update(ctx context.Context, trip *domain.OrderTrip, expectedUpdatedAt time.Time) error {
	query := `
		UPDATE order_trips
		SET vehicle_id = $1, driver_id = $2, weight = $3,
		    pickup_date = $4, delivery_date = $5,
		    driver_cost = $6, subcontractor_cost = $7, bridge_toll = $8, other_cost = $9,
		    last_status_type = $10,
		    bill_of_lading_code = $11, bill_of_lading_received = $12, bill_of_lading_received_at = $13, bill_of_lading_images = $14,
		    notification_scheduled_at = $15,
		    published = $16, updated_at = $17, updated_by = $18
		WHERE id = $19 AND updated_at = $20
	`

	now := time.Now().UTC()

	result, err := r.q.ExecContext(ctx, query,
		nullString(trip.VehicleID),
		nullString(trip.DriverID),
		trip.Weight,
		trip.PickupDate,
		trip.DeliveryDate,
		trip.DriverCost,
		trip.SubcontractorCost,
		trip.BridgeToll,
		trip.OtherCost,
		trip.LastStatusType,
		trip.BillOfLadingCode,
		trip.BillOfLadingReceived,
		nullTime(trip.BillOfLadingReceivedAt),
		pq.Array(trip.BillOfLadingImages),
		nullTime(trip.NotificationScheduledAt),
		trip.Published,
		now,
		trip.UpdatedBy,
		trip.ID,
		expectedUpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a stale token from a missing trip.
		var exists bool
		err := r.q.QueryRowContext(ctx, `SELECT TRUE FROM order_trips WHERE id = $1`, trip.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		return repository.ErrConflict
	}

	trip.UpdatedAt = now
	return nil
}

// AppendStatus persists a new immutable status event.
func (r *TripRepository) AppendStatus(ctx context.Context, event *domain.TripStatusEvent) error {
	query := `
		INSERT INTO order_trip_statuses (id, trip_id, type, note, driver_report_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		event.ID,
		event.TripID,
		event.Type,
		event.Note,
		nullString(event.DriverReportID),
		event.CreatedAt,
		event.CreatedBy,
	)

	return err
}

// ListStatusHistory returns the trip's status events ordered by created_at
// ascending.
func (r *TripRepository) ListStatusHistory(ctx context.Context, tripID string) ([]domain.TripStatusEvent, error) {
	query := `
		SELECT id, trip_id, type, note, driver_report_id, created_at, created_by
		FROM order_trip_statuses
		WHERE trip_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TripStatusEvent
	for rows.Next() {
		var event domain.TripStatusEvent
		var reportID sql.NullString

		if err := rows.Scan(
			&event.ID,
			&event.TripID,
			&event.Type,
			&event.Note,
			&reportID,
			&event.CreatedAt,
			&event.CreatedBy,
		); err != nil {
			return nil, err
		}

		event.DriverReportID = reportID.String
		events = append(events, event)
	}

	return events, rows.Err()
}

// ListByDriver returns the published trips assigned to a driver within an
// organization.
func (r *TripRepository) ListByDriver(ctx context.Context, orgID, driverID string) ([]*domain.OrderTrip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM order_trips
		WHERE org_id = $1 AND driver_id = $2 AND published = TRUE
		ORDER BY pickup_date ASC
	`

	rows, err := r.q.QueryContext(ctx, query, orgID, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.OrderTrip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// CountByOrder returns the number of trips linked to an order.
func (r *TripRepository) CountByOrder(ctx context.Context, orderID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_trips WHERE order_id = $1`, orderID).Scan(&count)
	return count, err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.OrderTrip, error) {
	var trip domain.OrderTrip
	var vehicleID, driverID sql.NullString
	var bolReceivedAt, notificationAt sql.NullTime
	var images pq.StringArray

	err := row.Scan(
		&trip.ID,
		&trip.OrgID,
		&trip.OrderID,
		&trip.Code,
		&vehicleID,
		&driverID,
		&trip.Weight,
		&trip.PickupDate,
		&trip.DeliveryDate,
		&trip.DriverCost,
		&trip.SubcontractorCost,
		&trip.BridgeToll,
		&trip.OtherCost,
		&trip.LastStatusType,
		&trip.BillOfLadingCode,
		&trip.BillOfLadingReceived,
		&bolReceivedAt,
		&images,
		&notificationAt,
		&trip.Published,
		&trip.CreatedAt,
		&trip.CreatedBy,
		&trip.UpdatedAt,
		&trip.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	trip.VehicleID = vehicleID.String
	trip.DriverID = driverID.String
	if bolReceivedAt.Valid {
		trip.BillOfLadingReceivedAt = bolReceivedAt.Time
	}
	if notificationAt.Valid {
		trip.NotificationScheduledAt = notificationAt.Time
	}
	trip.BillOfLadingImages = images

	return &trip, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
