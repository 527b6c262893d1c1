package tests

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"freight/internal/domain"
	"freight/internal/repository"
	"freight/internal/service"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fixture wires a TripService against in-memory repositories.
type fixture struct {
	trips    *MockTripRepository
	orders   *MockOrderRepository
	expenses *MockTripExpenseRepository
	routes   *MockRouteRepository
	vehicles *MockVehicleRepository
	stages   *MockStageRepository
	settings *MockSettingRepository
	locks    *MockLockStore
	sink     *MockSink

	tripService *service.TripService
}

func newFixture() *fixture {
	f := &fixture{
		trips:    NewMockTripRepository(),
		orders:   NewMockOrderRepository(),
		expenses: NewMockTripExpenseRepository(),
		routes:   NewMockRouteRepository(),
		vehicles: NewMockVehicleRepository(),
		stages:   NewMockStageRepository(),
		settings: NewMockSettingRepository(),
		locks:    NewMockLockStore(),
		sink:     NewMockSink(),
	}

	f.stages.SetStages("org-1", []domain.ReportStage{
		{ID: "st-1", OrgID: "org-1", Type: domain.TripStatusPendingConfirmation, DisplayOrder: 1},
		{ID: "st-2", OrgID: "org-1", Type: domain.TripStatusConfirmed, DisplayOrder: 2},
		{ID: "st-3", OrgID: "org-1", Type: domain.TripStatusWaitingForPickup, DisplayOrder: 3},
		{ID: "st-4", OrgID: "org-1", Type: domain.TripStatusDelivering, DisplayOrder: 4},
		{ID: "st-5", OrgID: "org-1", Type: domain.TripStatusDelivered, DisplayOrder: 5},
		{ID: "st-6", OrgID: "org-1", Type: domain.TripStatusCompleted, DisplayOrder: 6},
	})

	f.orders.AddOrder(&domain.Order{
		ID:        "order-1",
		OrgID:     "org-1",
		Code:      "ORD-100",
		RouteID:   "route-1",
		Status:    domain.OrderStatusReceived,
		Published: true,
	})

	log := quietLogger()
	uow := NewMockUnitOfWork(f.trips, f.orders, f.expenses)
	settings := service.NewSettings(f.settings, nil)
	catalog := service.NewStageCatalog(f.stages, nil)
	notifications := service.NewNotificationService(f.sink, log)

	f.tripService = service.NewTripService(
		uow, f.trips, f.orders, f.routes, f.vehicles,
		catalog, settings, f.locks, notifications, log,
	)

	return f
}

// seedTrip stores a published trip with a matching NEW event and returns it.
func (f *fixture) seedTrip(id string, status domain.TripStatusType, updatedAt time.Time) *domain.OrderTrip {
	trip := &domain.OrderTrip{
		ID:             id,
		OrgID:          "org-1",
		OrderID:        "order-1",
		Code:           "ORD-100-01",
		DriverID:       "drv-1",
		Weight:         decimal.NewFromInt(10),
		PickupDate:     time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		DeliveryDate:   time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		LastStatusType: status,
		Published:      true,
		CreatedAt:      updatedAt,
		UpdatedAt:      updatedAt,
	}
	f.trips.AddTrip(trip)
	f.trips.AddEvent(domain.TripStatusEvent{
		ID: id + "-evt-new", TripID: id, Type: domain.TripStatusNew, CreatedAt: updatedAt,
	})
	return trip
}

func createRequest() service.CreateTripRequest {
	return service.CreateTripRequest{
		OrgID:        "org-1",
		OrderID:      "order-1",
		VehicleID:    "veh-1",
		DriverID:     "drv-1",
		Weight:       decimal.NewFromInt(12),
		PickupDate:   time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		DeliveryDate: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Actor:        "dispatcher-1",
	}
}

// ──────────────────────────────────────────────
// TRIP CREATION
// ──────────────────────────────────────────────

func TestCreateTrip_FirstTripStartsOrder(t *testing.T) {
	t.Parallel()

	f := newFixture()

	trip, err := f.tripService.CreateTrip(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Code != "ORD-100-01" {
		t.Errorf("expected code ORD-100-01, got %s", trip.Code)
	}
	if trip.LastStatusType != domain.TripStatusNew {
		t.Errorf("expected NEW status, got %s", trip.LastStatusType)
	}

	history, _ := f.trips.ListStatusHistory(context.Background(), trip.ID)
	if len(history) != 1 || history[0].Type != domain.TripStatusNew {
		t.Errorf("expected one NEW event, got %v", history)
	}

	if got := f.orders.GetOrder("order-1").Status; got != domain.OrderStatusInProgress {
		t.Errorf("expected order IN_PROGRESS, got %s", got)
	}

	intents := f.sink.Intents()
	if len(intents) != 1 || intents[0].Type != domain.IntentOrderInProgress {
		t.Errorf("expected one ORDER_IN_PROGRESS intent, got %v", intents)
	}
}

func TestCreateTrip_SecondTripLeavesOrderAlone(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedTrip("trip-1", domain.TripStatusConfirmed, time.Now().UTC())
	order := f.orders.GetOrder("order-1")
	order.Status = domain.OrderStatusInProgress

	trip, err := f.tripService.CreateTrip(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Code != "ORD-100-02" {
		t.Errorf("expected code ORD-100-02, got %s", trip.Code)
	}
	if len(f.sink.Intents()) != 0 {
		t.Errorf("expected no intents, got %v", f.sink.Intents())
	}
}

func TestCreateTrip_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	req := createRequest()
	req.OrderID = ""
	if _, err := f.tripService.CreateTrip(ctx, req); !errors.Is(err, service.ErrInvalidOrderID) {
		t.Errorf("expected ErrInvalidOrderID, got %v", err)
	}

	req = createRequest()
	req.Weight = decimal.Zero
	if _, err := f.tripService.CreateTrip(ctx, req); !errors.Is(err, service.ErrInvalidWeight) {
		t.Errorf("expected ErrInvalidWeight, got %v", err)
	}

	req = createRequest()
	req.DeliveryDate = req.PickupDate.Add(-time.Hour)
	if _, err := f.tripService.CreateTrip(ctx, req); !errors.Is(err, service.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}

	req = createRequest()
	req.OrgID = "org-2"
	if _, err := f.tripService.CreateTrip(ctx, req); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign org, got %v", err)
	}
}

func TestCreateTrip_VehicleRequiredSetting(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.settings.Set("org-1", service.SettingVehicleRequired, "true")

	req := createRequest()
	req.VehicleID = ""
	if _, err := f.tripService.CreateTrip(context.Background(), req); !errors.Is(err, service.ErrVehicleRequired) {
		t.Errorf("expected ErrVehicleRequired, got %v", err)
	}
}

func TestCreateTrip_RouteDefaultsSeedExpenses(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.routes.AddRoute(&domain.Route{
		ID:    "route-1",
		OrgID: "org-1",
		DriverExpenses: []domain.RouteDriverExpense{
			{
				ID:          "rde-1",
				ExpenseType: domain.ExpenseType{ID: "et-labor", Name: "labor", IsDriverCost: true},
				Amount:      decimal.NewFromInt(1000),
			},
			{
				ID:          "rde-2",
				ExpenseType: domain.ExpenseType{ID: "et-toll", Name: "toll"},
				Amount:      decimal.NewFromInt(200),
			},
		},
	})
	f.vehicles.AddVehicle(&domain.Vehicle{
		ID:    "veh-1",
		OrgID: "org-1",
		Type:  domain.VehicleType{ID: "vt-1", DriverExpenseRate: decimal.NewFromInt(80)},
	})

	req := createRequest()
	req.UseRouteDefaults = true

	trip, err := f.tripService.CreateTrip(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !trip.DriverCost.Valid || !trip.DriverCost.Decimal.Equal(decimal.NewFromInt(800)) {
		t.Errorf("expected prorated driver cost 800, got %+v", trip.DriverCost)
	}

	lines := f.expenses.GetLines(trip.ID)
	if len(lines) != 2 {
		t.Fatalf("expected 2 expense lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line.TripID != trip.ID {
			t.Errorf("expected line stamped with trip ID, got %s", line.TripID)
		}
	}
}

func TestCreateTrip_RetriesOnDuplicateCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedTrip("trip-existing", domain.TripStatusConfirmed, time.Now().UTC())
	// Occupy the code the next create will try first.
	f.trips.GetTrip("trip-existing").Code = "ORD-100-02"

	trip, err := f.tripService.CreateTrip(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Code != "ORD-100-03" {
		t.Errorf("expected retry to allocate ORD-100-03, got %s", trip.Code)
	}
}

func TestCreateTrip_ExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.trips.CreateError = repository.ErrDuplicateCode
	f.trips.CreateErrorCount = 10

	_, err := f.tripService.CreateTrip(context.Background(), createRequest())
	if !errors.Is(err, service.ErrDuplicateTripCode) {
		t.Fatalf("expected ErrDuplicateTripCode, got %v", err)
	}

	if got := f.trips.CreateCallCount; got != 5 {
		t.Errorf("expected 5 create attempts, got %d", got)
	}
	if f.trips.CountTrips() != 0 {
		t.Errorf("expected no trips stored, got %d", f.trips.CountTrips())
	}
}

// ──────────────────────────────────────────────
// STATUS ADVANCES
// ──────────────────────────────────────────────

func TestAdvanceStatus_AppendsEventAndUpdatesTrip(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusNew, time.Now().UTC())

	trip, err := f.tripService.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
		TripID:            "trip-1",
		Type:              domain.TripStatusConfirmed,
		Note:              "driver confirmed",
		ExpectedUpdatedAt: seeded.UpdatedAt,
		Actor:             "dispatcher-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.LastStatusType != domain.TripStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", trip.LastStatusType)
	}

	history, _ := f.trips.ListStatusHistory(context.Background(), "trip-1")
	if len(history) != 2 {
		t.Fatalf("expected 2 events, got %d", len(history))
	}
	latest := history[len(history)-1]
	if latest.Type != trip.LastStatusType {
		t.Errorf("denormalized status %s does not match latest event %s", trip.LastStatusType, latest.Type)
	}
	if latest.Note != "driver confirmed" {
		t.Errorf("expected note on event, got %q", latest.Note)
	}
}

func TestAdvanceStatus_StaleTokenConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusNew, time.Now().UTC())
	stale := seeded.UpdatedAt

	if _, err := f.tripService.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
		TripID: "trip-1", Type: domain.TripStatusConfirmed, ExpectedUpdatedAt: stale, Actor: "a",
	}); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}

	before := f.trips.CountEvents("trip-1")
	_, err := f.tripService.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
		TripID: "trip-1", Type: domain.TripStatusWaitingForPickup, ExpectedUpdatedAt: stale, Actor: "b",
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if got := f.trips.CountEvents("trip-1"); got != before {
		t.Errorf("conflicting write appended events: %d -> %d", before, got)
	}
}

func TestAdvanceStatus_CanceledIsTerminal(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusCanceled, time.Now().UTC())

	_, err := f.tripService.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
		TripID: "trip-1", Type: domain.TripStatusConfirmed, ExpectedUpdatedAt: seeded.UpdatedAt, Actor: "a",
	})
	if !errors.Is(err, service.ErrTripCanceled) {
		t.Errorf("expected ErrTripCanceled, got %v", err)
	}
}

func TestAdvanceStatus_UnknownStageRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusNew, time.Now().UTC())

	_, err := f.tripService.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
		TripID: "trip-1", Type: "CUSTOMS_HOLD", ExpectedUpdatedAt: seeded.UpdatedAt, Actor: "a",
	})
	if !errors.Is(err, service.ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage, got %v", err)
	}
}

func TestAdvanceStatus_LockedTripRefused(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusNew, time.Now().UTC())
	f.locks.Lock("trip-1")

	_, err := f.tripService.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
		TripID: "trip-1", Type: domain.TripStatusConfirmed, ExpectedUpdatedAt: seeded.UpdatedAt, Actor: "a",
	})
	if !errors.Is(err, service.ErrTripLocked) {
		t.Errorf("expected ErrTripLocked, got %v", err)
	}
}

func TestAdvanceStatus_LockOutageDegradesToOptimisticCheck(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusNew, time.Now().UTC())
	f.locks.AcquireError = errors.New("redis down")

	trip, err := f.tripService.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
		TripID: "trip-1", Type: domain.TripStatusConfirmed, ExpectedUpdatedAt: seeded.UpdatedAt, Actor: "a",
	})
	if err != nil {
		t.Fatalf("expected advance to proceed without lock store, got %v", err)
	}
	if trip.LastStatusType != domain.TripStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", trip.LastStatusType)
	}
}

func TestConcurrentAdvance_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusNew, time.Now().UTC())

	// No distributed lock: both writers reach the optimistic check.
	svc := service.NewTripService(
		NewMockUnitOfWork(f.trips, f.orders, f.expenses),
		f.trips, f.orders, f.routes, f.vehicles,
		service.NewStageCatalog(f.stages, nil),
		service.NewSettings(f.settings, nil),
		nil,
		service.NewNotificationService(f.sink, quietLogger()),
		quietLogger(),
	)

	before := f.trips.CountEvents("trip-1")
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, status := range []domain.TripStatusType{domain.TripStatusConfirmed, domain.TripStatusWaitingForPickup} {
		wg.Add(1)
		go func(status domain.TripStatusType) {
			defer wg.Done()
			_, err := svc.AdvanceStatus(context.Background(), service.AdvanceStatusRequest{
				TripID: "trip-1", Type: status, ExpectedUpdatedAt: seeded.UpdatedAt, Actor: "a",
			})
			results <- err
		}(status)
	}
	wg.Wait()
	close(results)

	var conflicts, successes int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, repository.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Errorf("expected 1 success and 1 conflict, got %d/%d", successes, conflicts)
	}
	if got := f.trips.CountEvents("trip-1"); got != before+1 {
		t.Errorf("expected exactly one new event, got %d", got-before)
	}
}

// ──────────────────────────────────────────────
// CANCELLATION
// ──────────────────────────────────────────────

func TestCancelTrip_NotifiesDriver(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusConfirmed, time.Now().UTC())

	trip, err := f.tripService.CancelTrip(context.Background(), service.CancelTripRequest{
		TripID:            "trip-1",
		Note:              "customer canceled",
		ExpectedUpdatedAt: seeded.UpdatedAt,
		Actor:             "dispatcher-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.LastStatusType != domain.TripStatusCanceled {
		t.Errorf("expected CANCELED, got %s", trip.LastStatusType)
	}

	intents := f.sink.Intents()
	if len(intents) != 1 || intents[0].Type != domain.IntentTripCanceled {
		t.Fatalf("expected one TRIP_CANCELED intent, got %v", intents)
	}
	if len(intents[0].Recipients) != 1 || intents[0].Recipients[0] != "drv-1" {
		t.Errorf("expected driver as recipient, got %v", intents[0].Recipients)
	}
}

func TestCancelTrip_AlreadyCanceled(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusCanceled, time.Now().UTC())

	_, err := f.tripService.CancelTrip(context.Background(), service.CancelTripRequest{
		TripID: "trip-1", ExpectedUpdatedAt: seeded.UpdatedAt, Actor: "a",
	})
	if !errors.Is(err, service.ErrTripCanceled) {
		t.Errorf("expected ErrTripCanceled, got %v", err)
	}
	if len(f.sink.Intents()) != 0 {
		t.Errorf("expected no intents, got %v", f.sink.Intents())
	}
}

// ──────────────────────────────────────────────
// BILL OF LADING
// ──────────────────────────────────────────────

func TestUpdateBillOfLading_RecordsReceipt(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedTrip("trip-1", domain.TripStatusDelivered, time.Now().UTC())

	trip, err := f.tripService.UpdateBillOfLading(context.Background(), service.UpdateBillOfLadingRequest{
		TripID:      "trip-1",
		Code:        "BOL-7",
		ImagesAdded: []string{"img-a", "img-b"},
		Received:    true,
		Actor:       "accountant-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.BillOfLadingCode != "BOL-7" {
		t.Errorf("expected code BOL-7, got %s", trip.BillOfLadingCode)
	}
	if !trip.BillOfLadingReceived || trip.BillOfLadingReceivedAt.IsZero() {
		t.Error("expected receipt flag and timestamp set")
	}
	if len(trip.BillOfLadingImages) != 2 {
		t.Errorf("expected 2 images, got %v", trip.BillOfLadingImages)
	}
}

func TestUpdateBillOfLading_ClearReceiptRemovesImages(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedTrip("trip-1", domain.TripStatusDelivered, time.Now().UTC())

	ctx := context.Background()
	if _, err := f.tripService.UpdateBillOfLading(ctx, service.UpdateBillOfLadingRequest{
		TripID: "trip-1", Code: "BOL-7", ImagesAdded: []string{"img-a", "img-b"}, Received: true, Actor: "a",
	}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	trip, err := f.tripService.UpdateBillOfLading(ctx, service.UpdateBillOfLadingRequest{
		TripID: "trip-1", Code: "BOL-7", ImagesRemoved: []string{"img-a"}, Received: false, Actor: "a",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.BillOfLadingReceived || !trip.BillOfLadingReceivedAt.IsZero() {
		t.Error("expected receipt cleared")
	}
	if len(trip.BillOfLadingImages) != 1 || trip.BillOfLadingImages[0] != "img-b" {
		t.Errorf("expected only img-b to remain, got %v", trip.BillOfLadingImages)
	}
}

// ──────────────────────────────────────────────
// NOTIFICATION SCHEDULE
// ──────────────────────────────────────────────

func TestResetNotificationSchedule(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seeded := f.seedTrip("trip-1", domain.TripStatusConfirmed, time.Now().UTC())
	seeded.NotificationScheduledAt = time.Now().UTC().Add(time.Hour)

	trip, err := f.tripService.ResetNotificationSchedule(context.Background(), "trip-1", "dispatcher-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !trip.NotificationScheduledAt.IsZero() {
		t.Errorf("expected schedule cleared, got %s", trip.NotificationScheduledAt)
	}
}
