package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"freight/internal/domain"
	"freight/internal/repository"
)

// moneyPrecision is the number of fraction digits for monetary values.
// Line items are rounded first and then summed, so the stored total always
// equals the sum of the stored lines.
const moneyPrecision = 2

var oneHundred = decimal.NewFromInt(100)

// RouteCosts is the result of applying a route's default costs to a trip.
type RouteCosts struct {
	Lines      []domain.TripDriverExpense
	DriverCost decimal.Decimal

	// Flat route fields, copied verbatim.
	SubcontractorCost decimal.NullDecimal
	BridgeToll        decimal.NullDecimal
	OtherCost         decimal.NullDecimal
}

// ComputeFromRoute copies a route's default expense lines, prorating the
// driver-cost category by the vehicle-type rate. Lines in other categories
// and the route's flat toll/subcontractor/other fields are copied
// unchanged: only labor compensation scales with vehicle-type productivity.
func ComputeFromRoute(route *domain.Route, vehicleRate decimal.Decimal) RouteCosts {
	costs := RouteCosts{
		SubcontractorCost: route.SubcontractorCost,
		BridgeToll:        route.BridgeToll,
		OtherCost:         route.OtherCost,
	}

	for _, src := range route.DriverExpenses {
		amount := src.Amount
		if src.ExpenseType.IsDriverCost {
			amount = amount.Mul(vehicleRate).Div(oneHundred)
		}
		amount = amount.Round(moneyPrecision)

		costs.Lines = append(costs.Lines, domain.TripDriverExpense{
			ID:            uuid.New().String(),
			ExpenseTypeID: src.ExpenseType.ID,
			Name:          src.ExpenseType.Name,
			IsDriverCost:  src.ExpenseType.IsDriverCost,
			Amount:        amount,
		})

		if src.ExpenseType.IsDriverCost {
			costs.DriverCost = costs.DriverCost.Add(amount)
		}
	}

	// Routes without itemized lines fall back to the flat driver cost,
	// which is still labor and therefore still prorated.
	if len(costs.Lines) == 0 && route.DriverCost.Valid {
		costs.DriverCost = route.DriverCost.Decimal.Mul(vehicleRate).Div(oneHundred).Round(moneyPrecision)
	}

	return costs
}

// SumDriverCost sums the driver-cost category lines of a trip's expenses.
func SumDriverCost(lines []domain.TripDriverExpense) decimal.Decimal {
	var sum decimal.Decimal
	for _, line := range lines {
		if line.IsDriverCost {
			sum = sum.Add(line.Amount)
		}
	}
	return sum
}

// ExpenseService recomputes trip costs from route defaults.
type ExpenseService struct {
	uow      repository.UnitOfWork
	trips    repository.TripRepository
	routes   repository.RouteRepository
	vehicles repository.VehicleRepository
	log      *logrus.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(
	uow repository.UnitOfWork,
	trips repository.TripRepository,
	routes repository.RouteRepository,
	vehicles repository.VehicleRepository,
	log *logrus.Logger,
) *ExpenseService {
	return &ExpenseService{
		uow:      uow,
		trips:    trips,
		routes:   routes,
		vehicles: vehicles,
		log:      log,
	}
}

// ResetExpensesRequest contains the parameters for resetting trip expenses
// to route defaults.
type ResetExpensesRequest struct {
	RouteID string
	TripIDs []string
	Actor   string
}

// ResetToRouteDefaults re-applies the route's default costs to each trip,
// replacing any manually edited line items. Each trip is reset in its own
// transaction: either the trip's full expense set and cost fields are
// replaced or none of it is.
func (s *ExpenseService) ResetToRouteDefaults(ctx context.Context, req ResetExpensesRequest) ([]*domain.OrderTrip, error) {
	if req.RouteID == "" {
		return nil, ErrInvalidRouteID
	}

	if len(req.TripIDs) == 0 {
		return nil, ErrNoTripIDs
	}

	route, err := s.routes.GetByID(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}

	updated := make([]*domain.OrderTrip, 0, len(req.TripIDs))
	for _, tripID := range req.TripIDs {
		trip, err := s.resetTrip(ctx, tripID, route, req.Actor)
		if err != nil {
			s.log.WithError(err).WithField("trip_id", tripID).Error("expense reset failed")
			return updated, err
		}
		updated = append(updated, trip)
	}

	return updated, nil
}

func (s *ExpenseService) resetTrip(ctx context.Context, tripID string, route *domain.Route, actor string) (*domain.OrderTrip, error) {
	rate := oneHundred
	if trip, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	} else if trip.VehicleID != "" {
		vehicle, err := s.vehicles.GetByID(ctx, trip.VehicleID)
		if err != nil {
			return nil, err
		}
		rate = vehicle.Type.DriverExpenseRate
	}

	costs := ComputeFromRoute(route, rate)

	var updated *domain.OrderTrip
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		trip, err := r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}

		if trip.LastStatusType == domain.TripStatusCanceled {
			return ErrTripCanceled
		}

		lines := make([]domain.TripDriverExpense, len(costs.Lines))
		for i, line := range costs.Lines {
			line.TripID = trip.ID
			lines[i] = line
		}

		if err := r.Expenses.ReplaceForTrip(ctx, trip.ID, lines); err != nil {
			return err
		}

		trip.DriverCost = decimal.NullDecimal{Decimal: costs.DriverCost, Valid: true}
		trip.SubcontractorCost = costs.SubcontractorCost
		trip.BridgeToll = costs.BridgeToll
		trip.OtherCost = costs.OtherCost
		trip.UpdatedBy = actor

		if err := r.Trips.Update(ctx, trip, trip.UpdatedAt); err != nil {
			return err
		}

		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
