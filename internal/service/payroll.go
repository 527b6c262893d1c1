package service

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"freight/internal/domain"
	"freight/internal/repository"
)

// defaultPaidStages are the stage types treated as payable when the caller
// does not narrow them.
var defaultPaidStages = []domain.TripStatusType{
	domain.TripStatusWaitingForPickup,
	domain.TripStatusDelivered,
}

// SettlementWindow is the resolved payroll-eligible time span for a trip.
type SettlementWindow struct {
	Start time.Time
	End   time.Time
}

// ResolveSettlementWindow computes a trip's settlement window from its
// status event history and the organization's stage pipeline.
//
// The start is the planned pickup date until the trip actually reaches
// WAITING_FOR_PICKUP, after which the event time supersedes the plan; past
// that stage the resolver looks back for the pickup event and falls back to
// the plan if the stage was skipped. The end is the planned delivery date
// until delivery, after which the latest event's time wins. Returns false
// for canceled trips, which never settle.
func ResolveSettlementWindow(trip *domain.OrderTrip, history []domain.TripStatusEvent, pipeline *StagePipeline) (SettlementWindow, bool) {
	if len(history) == 0 {
		return SettlementWindow{Start: trip.PickupDate, End: trip.DeliveryDate}, true
	}

	latest := history[0]
	latestPerType := make(map[domain.TripStatusType]domain.TripStatusEvent, len(history))
	for _, event := range history {
		if !event.CreatedAt.Before(latest.CreatedAt) {
			latest = event
		}
		prev, ok := latestPerType[event.Type]
		if !ok || !event.CreatedAt.Before(prev.CreatedAt) {
			latestPerType[event.Type] = event
		}
	}

	if latest.Type == domain.TripStatusCanceled {
		return SettlementWindow{}, false
	}

	wfpOrder, wfpKnown := pipeline.DisplayOrder(domain.TripStatusWaitingForPickup)
	deliveredOrder, deliveredKnown := pipeline.DisplayOrder(domain.TripStatusDelivered)
	if !wfpKnown || !deliveredKnown {
		return SettlementWindow{}, false
	}

	// Stages outside the pipeline (NEW and friends) sort before pickup.
	currentOrder, known := pipeline.DisplayOrder(latest.Type)
	if !known {
		currentOrder = -1
	}

	var window SettlementWindow

	switch {
	case currentOrder < wfpOrder:
		window.Start = trip.PickupDate
	case currentOrder == wfpOrder:
		window.Start = latestPerType[domain.TripStatusWaitingForPickup].CreatedAt
	default:
		if event, ok := latestPerType[domain.TripStatusWaitingForPickup]; ok {
			window.Start = event.CreatedAt
		} else {
			window.Start = trip.PickupDate
		}
	}

	if currentOrder < deliveredOrder {
		window.End = trip.DeliveryDate
	} else {
		window.End = latest.CreatedAt
	}

	return window, true
}

// PayrollService resolves driver settlement records from the status event
// log. The computation is a pure read-side projection: re-running it over
// an unchanged log yields identical results.
type PayrollService struct {
	trips    repository.TripRepository
	expenses repository.TripExpenseRepository
	catalog  *StageCatalog
	settings *Settings
	log      *logrus.Logger
}

// NewPayrollService creates a new PayrollService.
func NewPayrollService(
	trips repository.TripRepository,
	expenses repository.TripExpenseRepository,
	catalog *StageCatalog,
	settings *Settings,
	log *logrus.Logger,
) *PayrollService {
	return &PayrollService{
		trips:    trips,
		expenses: expenses,
		catalog:  catalog,
		settings: settings,
		log:      log,
	}
}

// SettlementQuery contains the parameters for a driver payroll report.
type SettlementQuery struct {
	OrgID    string
	DriverID string
	From     time.Time
	To       time.Time

	// PaidStages narrows which stage events qualify a trip in the legacy
	// status-event mode. Defaults to WAITING_FOR_PICKUP and DELIVERED.
	PaidStages []domain.TripStatusType
}

// DriverSettlements computes one settlement record per qualifying trip,
// ordered by resolved start date ascending.
//
// A trip qualifies only if it is published, belongs to the driver, carries
// a bill-of-lading code, and falls in the requested range. Which timestamp
// gates the range check depends on the organization's payroll window mode:
// the resolved start date, or (legacy) any payable status event's time.
func (s *PayrollService) DriverSettlements(ctx context.Context, q SettlementQuery) ([]domain.Settlement, error) {
	if q.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	if q.To.Before(q.From) {
		return nil, ErrInvalidDateRange
	}

	pipeline, err := s.catalog.ForOrg(ctx, q.OrgID)
	if err != nil {
		return nil, err
	}

	if !pipeline.Contains(domain.TripStatusWaitingForPickup) || !pipeline.Contains(domain.TripStatusDelivered) {
		return nil, ErrPipelineIncomplete
	}

	paidStages := q.PaidStages
	if len(paidStages) == 0 {
		paidStages = defaultPaidStages
	}

	mode := s.settings.Get(ctx, q.OrgID, SettingPayrollWindowMode, WindowModeResolved)
	unit := s.settings.Get(ctx, q.OrgID, SettingPayrollCurrencyUnit, "USD")

	trips, err := s.trips.ListByDriver(ctx, q.OrgID, q.DriverID)
	if err != nil {
		return nil, err
	}

	var settlements []domain.Settlement
	for _, trip := range trips {
		if trip.BillOfLadingCode == "" {
			continue
		}

		history, err := s.trips.ListStatusHistory(ctx, trip.ID)
		if err != nil {
			return nil, err
		}

		window, ok := ResolveSettlementWindow(trip, history, pipeline)
		if !ok {
			continue
		}

		if !s.qualifies(mode, window, history, paidStages, q.From, q.To) {
			continue
		}

		lines, err := s.expenses.ListByTrip(ctx, trip.ID)
		if err != nil {
			return nil, err
		}

		settlements = append(settlements, domain.Settlement{
			TripID:    trip.ID,
			TripCode:  trip.Code,
			DriverID:  q.DriverID,
			StartDate: window.Start,
			EndDate:   window.End,
			Amount:    SumDriverCost(lines),
			Unit:      unit,
		})
	}

	sort.SliceStable(settlements, func(i, j int) bool {
		return settlements[i].StartDate.Before(settlements[j].StartDate)
	})

	return settlements, nil
}

func (s *PayrollService) qualifies(
	mode string,
	window SettlementWindow,
	history []domain.TripStatusEvent,
	paidStages []domain.TripStatusType,
	from, to time.Time,
) bool {
	if mode == WindowModeStatusEvent {
		for _, event := range history {
			for _, stage := range paidStages {
				if event.Type == stage && inRange(event.CreatedAt, from, to) {
					return true
				}
			}
		}
		return false
	}

	return inRange(window.Start, from, to)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
