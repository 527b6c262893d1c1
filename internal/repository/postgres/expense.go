package postgres

import (
	"context"
	"database/sql"

	"freight/internal/domain"
	"freight/internal/repository"
)

// TripExpenseRepository is a PostgreSQL implementation of
// repository.TripExpenseRepository.
type TripExpenseRepository struct {
	q Querier
}

// NewTripExpenseRepository creates a new PostgreSQL trip expense repository.
func NewTripExpenseRepository(db *sql.DB) *TripExpenseRepository {
	return &TripExpenseRepository{q: db}
}

// NewTripExpenseRepositoryWithTx creates a trip expense repository using a
// transaction.
func NewTripExpenseRepositoryWithTx(tx *sql.Tx) *TripExpenseRepository {
	return &TripExpenseRepository{q: tx}
}

// ListByTrip returns a trip's expense lines.
func (r *TripExpenseRepository) ListByTrip(ctx context.Context, tripID string) ([]domain.TripDriverExpense, error) {
	query := `
		SELECT id, trip_id, expense_type_id, name, is_driver_cost, amount
		FROM trip_driver_expenses
		WHERE trip_id = $1
		ORDER BY name ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.TripDriverExpense
	for rows.Next() {
		var line domain.TripDriverExpense
		if err := rows.Scan(
			&line.ID,
			&line.TripID,
			&line.ExpenseTypeID,
			&line.Name,
			&line.IsDriverCost,
			&line.Amount,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// ReplaceForTrip replaces the trip's full expense set with lines. Callers
// run this inside a unit of work together with the trip cost-field update
// so a trip's totals and its lines can never diverge.
func (r *TripExpenseRepository) ReplaceForTrip(ctx context.Context, tripID string, lines []domain.TripDriverExpense) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM trip_driver_expenses WHERE trip_id = $1`, tripID); err != nil {
		return err
	}

	query := `
		INSERT INTO trip_driver_expenses (id, trip_id, expense_type_id, name, is_driver_cost, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, line := range lines {
		if _, err := r.q.ExecContext(ctx, query,
			line.ID,
			tripID,
			line.ExpenseTypeID,
			line.Name,
			line.IsDriverCost,
			line.Amount,
		); err != nil {
			return err
		}
	}

	return nil
}

// Ensure TripExpenseRepository implements repository.TripExpenseRepository.
var _ repository.TripExpenseRepository = (*TripExpenseRepository)(nil)
