package domain

import "github.com/shopspring/decimal"

// TripDriverExpense is one cost line attached to a trip. The sum of a
// trip's driver-cost lines equals the trip's DriverCost field.
type TripDriverExpense struct {
	ID            string
	TripID        string
	ExpenseTypeID string
	Name          string
	IsDriverCost  bool
	Amount        decimal.Decimal
}
