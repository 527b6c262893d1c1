package domain

import "github.com/shopspring/decimal"

// VehicleType groups vehicles sharing a driver-expense rate.
type VehicleType struct {
	ID   string
	Name string

	// DriverExpenseRate is a percentage (100 = full route default) used to
	// prorate driver-cost expense lines copied from a route.
	DriverExpenseRate decimal.Decimal
}

// Vehicle represents a truck available for dispatch.
type Vehicle struct {
	ID     string
	OrgID  string
	Number string
	Type   VehicleType
}

// Driver represents a driver available for dispatch.
type Driver struct {
	ID    string
	OrgID string
	Name  string
	Phone string
}
