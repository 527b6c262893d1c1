package domain

import "github.com/shopspring/decimal"

// ExpenseType tags a cost component. IsDriverCost marks components that
// count as driver compensation; those are the only ones prorated by the
// vehicle-type rate when route defaults are copied onto a trip.
type ExpenseType struct {
	ID           string
	OrgID        string
	Name         string
	IsDriverCost bool
}

// RouteDriverExpense is one default cost line configured on a route.
type RouteDriverExpense struct {
	ID          string
	RouteID     string
	ExpenseType ExpenseType
	Amount      decimal.Decimal
}

// Route is organization-level reference data: default costs applied to a
// trip when it is scheduled on this route. Read-only from this engine's
// perspective.
type Route struct {
	ID    string
	OrgID string
	Name  string

	// Flat defaults copied onto the trip verbatim, never prorated.
	DriverCost        decimal.NullDecimal
	SubcontractorCost decimal.NullDecimal
	BridgeToll        decimal.NullDecimal
	OtherCost         decimal.NullDecimal

	DriverExpenses []RouteDriverExpense
}
