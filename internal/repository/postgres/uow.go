package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"freight/internal/repository"
)

// UnitOfWork implements repository.UnitOfWork on top of database/sql
// transactions.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do runs fn against transaction-scoped repositories, committing on success
// and rolling back on error.
func (u *UnitOfWork) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	repos := repository.Repositories{
		Trips:    NewTripRepositoryWithTx(tx),
		Orders:   NewOrderRepositoryWithTx(tx),
		Expenses: NewTripExpenseRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Ensure UnitOfWork implements repository.UnitOfWork.
var _ repository.UnitOfWork = (*UnitOfWork)(nil)
