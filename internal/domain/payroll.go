package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement is one payroll record: a trip attributed to a driver's pay
// period with its resolved settlement window and amount. It is a pure
// read-side projection, re-derivable from the trip's status event log.
type Settlement struct {
	TripID    string
	TripCode  string
	DriverID  string
	StartDate time.Time
	EndDate   time.Time
	Amount    decimal.Decimal
	Unit      string
}
