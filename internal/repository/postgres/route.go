package postgres

import (
	"context"
	"database/sql"
	"errors"

	"freight/internal/domain"
	"freight/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

// GetByID retrieves a route with its nested driver expense lines.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `
		SELECT id, org_id, name, driver_cost, subcontractor_cost, bridge_toll, other_cost
		FROM routes
		WHERE id = $1
	`

	var route domain.Route
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&route.ID,
		&route.OrgID,
		&route.Name,
		&route.DriverCost,
		&route.SubcontractorCost,
		&route.BridgeToll,
		&route.OtherCost,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	lines, err := r.listExpenses(ctx, id)
	if err != nil {
		return nil, err
	}
	route.DriverExpenses = lines

	return &route, nil
}

func (r *RouteRepository) listExpenses(ctx context.Context, routeID string) ([]domain.RouteDriverExpense, error) {
	query := `
		SELECT e.id, e.route_id, e.amount,
		       t.id, t.org_id, t.name, t.is_driver_cost
		FROM route_driver_expenses e
		JOIN expense_types t ON t.id = e.expense_type_id
		WHERE e.route_id = $1
		ORDER BY t.name ASC
	`

	rows, err := r.q.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.RouteDriverExpense
	for rows.Next() {
		var line domain.RouteDriverExpense
		if err := rows.Scan(
			&line.ID,
			&line.RouteID,
			&line.Amount,
			&line.ExpenseType.ID,
			&line.ExpenseType.OrgID,
			&line.ExpenseType.Name,
			&line.ExpenseType.IsDriverCost,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
