package repository

import "context"

// Repositories bundles the repositories that participate in a single
// transaction.
type Repositories struct {
	Trips    TripRepository
	Orders   OrderRepository
	Expenses TripExpenseRepository
}

// UnitOfWork runs a function against transaction-scoped repositories. If fn
// returns an error the transaction is rolled back and nothing is written;
// otherwise it is committed. Every mutating business operation spans its
// read-then-write round trip with a unit of work so the denormalized trip
// status and its event log can never diverge.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
}
