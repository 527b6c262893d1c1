package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"freight/internal/domain"
	"freight/internal/redis"
	"freight/internal/repository"
)

const (
	// tripCodeMaxRetries bounds code allocation retries on a unique
	// violation. Collisions should not occur under correct sequencing.
	tripCodeMaxRetries = 5

	// tripLockTTL caps how long a per-trip writer lock is held.
	tripLockTTL = 5 * time.Second
)

// TripService owns the trip status state machine: creation, cancellation,
// status advances, and the bill-of-lading sub-workflow.
type TripService struct {
	uow           repository.UnitOfWork
	trips         repository.TripRepository
	orders        repository.OrderRepository
	routes        repository.RouteRepository
	vehicles      repository.VehicleRepository
	catalog       *StageCatalog
	settings      *Settings
	locks         redis.LockStoreInterface
	notifications *NotificationService
	log           *logrus.Logger
}

// NewTripService creates a new TripService. locks may be nil when no
// distributed lock is available; the optimistic check still protects
// against lost updates on its own.
func NewTripService(
	uow repository.UnitOfWork,
	trips repository.TripRepository,
	orders repository.OrderRepository,
	routes repository.RouteRepository,
	vehicles repository.VehicleRepository,
	catalog *StageCatalog,
	settings *Settings,
	locks redis.LockStoreInterface,
	notifications *NotificationService,
	log *logrus.Logger,
) *TripService {
	return &TripService{
		uow:           uow,
		trips:         trips,
		orders:        orders,
		routes:        routes,
		vehicles:      vehicles,
		catalog:       catalog,
		settings:      settings,
		locks:         locks,
		notifications: notifications,
		log:           log,
	}
}

// CostOverrides carries ad-hoc cost fields supplied at trip creation
// instead of route defaults.
type CostOverrides struct {
	DriverCost        decimal.NullDecimal
	SubcontractorCost decimal.NullDecimal
	BridgeToll        decimal.NullDecimal
	OtherCost         decimal.NullDecimal
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	OrgID            string
	OrderID          string
	VehicleID        string
	DriverID         string
	Weight           decimal.Decimal
	PickupDate       time.Time
	DeliveryDate     time.Time
	UseRouteDefaults bool
	CostOverrides    *CostOverrides
	Actor            string
}

// CreateTrip allocates a trip code unique within the order, seeds the NEW
// status event, applies route default costs when requested, and moves the
// parent order to IN_PROGRESS when this is its first trip.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.OrderTrip, error) {
	if req.OrderID == "" {
		return nil, ErrInvalidOrderID
	}

	if !req.Weight.IsPositive() {
		return nil, ErrInvalidWeight
	}

	if !req.PickupDate.IsZero() && !req.DeliveryDate.IsZero() && req.DeliveryDate.Before(req.PickupDate) {
		return nil, ErrInvalidDateRange
	}

	if req.VehicleID == "" && s.settings.GetBool(ctx, req.OrgID, SettingVehicleRequired, false) {
		return nil, ErrVehicleRequired
	}

	if req.DriverID == "" && s.settings.GetBool(ctx, req.OrgID, SettingDriverRequired, false) {
		return nil, ErrDriverRequired
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.OrgID != req.OrgID {
		return nil, repository.ErrNotFound
	}

	costs, lines, err := s.resolveCreateCosts(ctx, order, req)
	if err != nil {
		return nil, err
	}

	sequence, err := s.trips.CountByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	sequence++

	firstTrip := sequence == 1 && order.Status == domain.OrderStatusReceived

	var created *domain.OrderTrip
	for attempt := 0; attempt < tripCodeMaxRetries; attempt++ {
		now := time.Now().UTC()
		trip := &domain.OrderTrip{
			ID:                uuid.New().String(),
			OrgID:             req.OrgID,
			OrderID:           order.ID,
			Code:              fmt.Sprintf("%s-%02d", order.Code, sequence+attempt),
			VehicleID:         req.VehicleID,
			DriverID:          req.DriverID,
			Weight:            req.Weight,
			PickupDate:        req.PickupDate,
			DeliveryDate:      req.DeliveryDate,
			DriverCost:        costs.DriverCost,
			SubcontractorCost: costs.SubcontractorCost,
			BridgeToll:        costs.BridgeToll,
			OtherCost:         costs.OtherCost,
			LastStatusType:    domain.TripStatusNew,
			Published:         true,
			CreatedAt:         now,
			CreatedBy:         req.Actor,
			UpdatedAt:         now,
			UpdatedBy:         req.Actor,
		}

		err := s.uow.Do(ctx, func(r repository.Repositories) error {
			if err := r.Trips.Create(ctx, trip); err != nil {
				return err
			}

			event := &domain.TripStatusEvent{
				ID:        uuid.New().String(),
				TripID:    trip.ID,
				Type:      domain.TripStatusNew,
				CreatedAt: now,
				CreatedBy: req.Actor,
			}
			if err := r.Trips.AppendStatus(ctx, event); err != nil {
				return err
			}

			if len(lines) > 0 {
				for i := range lines {
					lines[i].TripID = trip.ID
				}
				if err := r.Expenses.ReplaceForTrip(ctx, trip.ID, lines); err != nil {
					return err
				}
			}

			if firstTrip {
				started := *order
				started.Status = domain.OrderStatusInProgress
				started.UpdatedBy = req.Actor
				if err := r.Orders.Update(ctx, &started); err != nil {
					return err
				}
			}

			return nil
		})
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}

		created = trip
		break
	}

	if created == nil {
		s.log.WithFields(logrus.Fields{
			"order_id": order.ID,
			"retries":  tripCodeMaxRetries,
		}).Error("trip code allocation exhausted retry budget")
		return nil, ErrDuplicateTripCode
	}

	if firstTrip {
		order.Status = domain.OrderStatusInProgress
		s.notifications.NotifyOrderInProgress(ctx, order, created)
	}

	return created, nil
}

// resolveCreateCosts determines a new trip's cost fields and expense lines
// from either route defaults or the caller's ad-hoc overrides.
func (s *TripService) resolveCreateCosts(ctx context.Context, order *domain.Order, req CreateTripRequest) (CostOverrides, []domain.TripDriverExpense, error) {
	if req.UseRouteDefaults && order.RouteID != "" {
		route, err := s.routes.GetByID(ctx, order.RouteID)
		if err != nil {
			return CostOverrides{}, nil, err
		}

		rate := oneHundred
		if req.VehicleID != "" {
			vehicle, err := s.vehicles.GetByID(ctx, req.VehicleID)
			if err != nil {
				return CostOverrides{}, nil, err
			}
			rate = vehicle.Type.DriverExpenseRate
		}

		routeCosts := ComputeFromRoute(route, rate)
		return CostOverrides{
			DriverCost:        decimal.NullDecimal{Decimal: routeCosts.DriverCost, Valid: true},
			SubcontractorCost: routeCosts.SubcontractorCost,
			BridgeToll:        routeCosts.BridgeToll,
			OtherCost:         routeCosts.OtherCost,
		}, routeCosts.Lines, nil
	}

	if req.CostOverrides != nil {
		return *req.CostOverrides, nil, nil
	}

	return CostOverrides{}, nil, nil
}

// AdvanceStatusRequest contains the parameters for a status advance.
type AdvanceStatusRequest struct {
	TripID         string
	Type           domain.TripStatusType
	Note           string
	DriverReportID string

	// ExpectedUpdatedAt is the trip's last-known update token. The write
	// is refused with repository.ErrConflict when the persisted value
	// differs.
	ExpectedUpdatedAt time.Time

	Actor string
}

// AdvanceStatus appends a status event and updates the trip's denormalized
// last status in one transaction. Any non-terminal stage may be skipped or
// revisited; dispatch corrections need free transitions. CANCELED rejects
// everything.
func (s *TripService) AdvanceStatus(ctx context.Context, req AdvanceStatusRequest) (*domain.OrderTrip, error) {
	if req.Type == "" {
		return nil, ErrInvalidStageType
	}

	if req.Type == domain.TripStatusCanceled {
		return s.CancelTrip(ctx, CancelTripRequest{
			TripID:            req.TripID,
			Note:              req.Note,
			ExpectedUpdatedAt: req.ExpectedUpdatedAt,
			Actor:             req.Actor,
		})
	}

	return s.writeStatus(ctx, req, true)
}

// CancelTripRequest contains the parameters for canceling a trip.
type CancelTripRequest struct {
	TripID            string
	Note              string
	ExpectedUpdatedAt time.Time
	Actor             string
}

// CancelTrip writes the terminal CANCELED status and alerts operators and
// the assigned driver.
func (s *TripService) CancelTrip(ctx context.Context, req CancelTripRequest) (*domain.OrderTrip, error) {
	trip, err := s.writeStatus(ctx, AdvanceStatusRequest{
		TripID:            req.TripID,
		Type:              domain.TripStatusCanceled,
		Note:              req.Note,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
		Actor:             req.Actor,
	}, false)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyTripCanceled(ctx, trip)
	return trip, nil
}

// writeStatus serializes concurrent writers on a per-trip lock, then runs
// the optimistic-checked event append and denormalized-status update inside
// one transaction.
func (s *TripService) writeStatus(ctx context.Context, req AdvanceStatusRequest, checkCatalog bool) (*domain.OrderTrip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.locks != nil {
		acquired, err := s.locks.AcquireTripLock(ctx, req.TripID, tripLockTTL)
		if err != nil {
			// Lock store outage degrades to optimistic checking only.
			s.log.WithError(err).WithField("trip_id", req.TripID).Warn("trip lock unavailable")
		} else if !acquired {
			return nil, ErrTripLocked
		} else {
			defer func() {
				_ = s.locks.ReleaseTripLock(ctx, req.TripID)
			}()
		}
	}

	var updated *domain.OrderTrip
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		trip, err := r.Trips.GetByID(ctx, req.TripID)
		if err != nil {
			return err
		}

		if trip.LastStatusType == domain.TripStatusCanceled {
			return ErrTripCanceled
		}

		if checkCatalog {
			pipeline, err := s.catalog.ForOrg(ctx, trip.OrgID)
			if err != nil {
				return err
			}
			if !pipeline.Contains(req.Type) && req.Type != domain.TripStatusNew {
				return ErrUnknownStage
			}
		}

		now := time.Now().UTC()

		trip.LastStatusType = req.Type
		trip.UpdatedBy = req.Actor
		if err := r.Trips.Update(ctx, trip, req.ExpectedUpdatedAt); err != nil {
			return err
		}

		event := &domain.TripStatusEvent{
			ID:             uuid.New().String(),
			TripID:         trip.ID,
			Type:           req.Type,
			Note:           req.Note,
			DriverReportID: req.DriverReportID,
			CreatedAt:      now,
			CreatedBy:      req.Actor,
		}
		if err := r.Trips.AppendStatus(ctx, event); err != nil {
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

// UpdateBillOfLadingRequest contains the parameters for the bill-of-lading
// sub-workflow.
type UpdateBillOfLadingRequest struct {
	TripID        string
	Code          string
	ImagesAdded   []string
	ImagesRemoved []string
	Received      bool
	Actor         string
}

// UpdateBillOfLading records the bill-of-lading code, image set, and
// receipt flag. Independent of the status pipeline.
func (s *TripService) UpdateBillOfLading(ctx context.Context, req UpdateBillOfLadingRequest) (*domain.OrderTrip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	var updated *domain.OrderTrip
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		trip, err := r.Trips.GetByID(ctx, req.TripID)
		if err != nil {
			return err
		}

		trip.BillOfLadingCode = req.Code
		trip.BillOfLadingImages = mergeImages(trip.BillOfLadingImages, req.ImagesAdded, req.ImagesRemoved)

		if req.Received && !trip.BillOfLadingReceived {
			trip.BillOfLadingReceivedAt = time.Now().UTC()
		}
		if !req.Received {
			trip.BillOfLadingReceivedAt = time.Time{}
		}
		trip.BillOfLadingReceived = req.Received
		trip.UpdatedBy = req.Actor

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

// ResetNotificationSchedule clears the trip's scheduled-notification
// timestamp. Pure data mutation, not a status transition.
func (s *TripService) ResetNotificationSchedule(ctx context.Context, tripID, actor string) (*domain.OrderTrip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	var updated *domain.OrderTrip
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		trip, err := r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}

		trip.NotificationScheduledAt = time.Time{}
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

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.OrderTrip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	return s.trips.GetByID(ctx, tripID)
}

// GetStatusHistory retrieves a trip's status events ordered by creation
// time.
func (s *TripService) GetStatusHistory(ctx context.Context, tripID string) ([]domain.TripStatusEvent, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}

	return s.trips.ListStatusHistory(ctx, tripID)
}

func mergeImages(current, added, removed []string) []string {
	drop := make(map[string]bool, len(removed))
	for _, ref := range removed {
		drop[ref] = true
	}

	seen := make(map[string]bool, len(current)+len(added))
	merged := make([]string, 0, len(current)+len(added))
	for _, ref := range current {
		if !drop[ref] && !seen[ref] {
			seen[ref] = true
			merged = append(merged, ref)
		}
	}
	for _, ref := range added {
		if !drop[ref] && !seen[ref] {
			seen[ref] = true
			merged = append(merged, ref)
		}
	}

	return merged
}
