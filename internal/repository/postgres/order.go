package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"freight/internal/domain"
	"freight/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// GetByID retrieves a published order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, org_id, code, route_id, status, published, created_at, created_by, updated_at, updated_by
		FROM orders
		WHERE id = $1 AND published = TRUE
	`

	var order domain.Order
	var routeID sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrgID,
		&order.Code,
		&routeID,
		&order.Status,
		&order.Published,
		&order.CreatedAt,
		&order.CreatedBy,
		&order.UpdatedAt,
		&order.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	order.RouteID = routeID.String
	return &order, nil
}

// Update updates an existing order.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, published = $2, updated_at = $3, updated_by = $4
		WHERE id = $5
	`

	now := time.Now().UTC()

	result, err := r.q.ExecContext(ctx, query, order.Status, order.Published, now, order.UpdatedBy, order.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	order.UpdatedAt = now
	return nil
}

// Ensure OrderRepository implements repository.OrderRepository.
var _ repository.OrderRepository = (*OrderRepository)(nil)
