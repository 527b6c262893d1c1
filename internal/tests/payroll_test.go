package tests

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"freight/internal/domain"
	"freight/internal/service"
)

func newPayrollService(f *fixture) *service.PayrollService {
	return service.NewPayrollService(
		f.trips,
		f.expenses,
		service.NewStageCatalog(f.stages, nil),
		service.NewSettings(f.settings, nil),
		quietLogger(),
	)
}

// seedSettledTrip stores a delivered trip with a bill of lading, a pickup
// and delivery event, and a standard expense set.
func seedSettledTrip(f *fixture, id, code string, pickupAt, deliveredAt time.Time) {
	f.trips.AddTrip(&domain.OrderTrip{
		ID:               id,
		OrgID:            "org-1",
		OrderID:          "order-1",
		Code:             code,
		DriverID:         "drv-1",
		Weight:           decimal.NewFromInt(10),
		PickupDate:       pickupAt.Truncate(24 * time.Hour),
		DeliveryDate:     deliveredAt.Truncate(24 * time.Hour),
		LastStatusType:   domain.TripStatusDelivered,
		BillOfLadingCode: "BOL-" + id,
		Published:        true,
		UpdatedAt:        deliveredAt,
	})
	f.trips.AddEvent(domain.TripStatusEvent{
		ID: id + "-wfp", TripID: id, Type: domain.TripStatusWaitingForPickup, CreatedAt: pickupAt,
	})
	f.trips.AddEvent(domain.TripStatusEvent{
		ID: id + "-del", TripID: id, Type: domain.TripStatusDelivered, CreatedAt: deliveredAt,
	})
	f.expenses.SetLines(id, []domain.TripDriverExpense{
		{ID: id + "-labor", TripID: id, Name: "labor", IsDriverCost: true, Amount: decimal.NewFromInt(800)},
		{ID: id + "-toll", TripID: id, Name: "toll", Amount: decimal.NewFromInt(200)},
	})
}

func januaryQuery() service.SettlementQuery {
	return service.SettlementQuery{
		OrgID:    "org-1",
		DriverID: "drv-1",
		From:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}
}

// ──────────────────────────────────────────────
// DRIVER SETTLEMENTS
// ──────────────────────────────────────────────

func TestDriverSettlements_ResolvesWindowAndAmount(t *testing.T) {
	t.Parallel()

	f := newFixture()
	pickupAt := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)
	deliveredAt := time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC)
	seedSettledTrip(f, "trip-1", "ORD-100-01", pickupAt, deliveredAt)

	settlements, err := newPayrollService(f).DriverSettlements(context.Background(), januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(settlements) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(settlements))
	}

	s := settlements[0]
	if s.TripCode != "ORD-100-01" || s.DriverID != "drv-1" {
		t.Errorf("unexpected identity fields: %+v", s)
	}
	if !s.StartDate.Equal(pickupAt) {
		t.Errorf("expected start at pickup event, got %s", s.StartDate)
	}
	if !s.EndDate.Equal(deliveredAt) {
		t.Errorf("expected end at delivered event, got %s", s.EndDate)
	}
	if !s.Amount.Equal(decimal.NewFromInt(800)) {
		t.Errorf("expected driver-cost amount 800, got %s", s.Amount)
	}
	if s.Unit != "USD" {
		t.Errorf("expected default unit USD, got %s", s.Unit)
	}
}

func TestDriverSettlements_CurrencyUnitSetting(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.settings.Set("org-1", service.SettingPayrollCurrencyUnit, "VND")
	seedSettledTrip(f, "trip-1", "ORD-100-01",
		time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC))

	settlements, err := newPayrollService(f).DriverSettlements(context.Background(), januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settlements) != 1 || settlements[0].Unit != "VND" {
		t.Errorf("expected configured unit VND, got %+v", settlements)
	}
}

func TestDriverSettlements_SkipsTripsWithoutBillOfLading(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedSettledTrip(f, "trip-1", "ORD-100-01",
		time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC))
	f.trips.GetTrip("trip-1").BillOfLadingCode = ""

	settlements, err := newPayrollService(f).DriverSettlements(context.Background(), januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settlements) != 0 {
		t.Errorf("expected no settlements, got %+v", settlements)
	}
}

func TestDriverSettlements_SkipsCanceledTrips(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedSettledTrip(f, "trip-1", "ORD-100-01",
		time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC))
	f.trips.AddEvent(domain.TripStatusEvent{
		ID: "trip-1-cancel", TripID: "trip-1", Type: domain.TripStatusCanceled,
		CreatedAt: time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC),
	})

	settlements, err := newPayrollService(f).DriverSettlements(context.Background(), januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settlements) != 0 {
		t.Errorf("expected no settlements for canceled trip, got %+v", settlements)
	}
}

func TestDriverSettlements_RangeGateByMode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	// Window starts in December; delivery lands in January.
	seedSettledTrip(f, "trip-1", "ORD-100-01",
		time.Date(2023, 12, 30, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC))

	svc := newPayrollService(f)
	ctx := context.Background()

	settlements, err := svc.DriverSettlements(ctx, januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settlements) != 0 {
		t.Errorf("resolved mode gates on start date; expected exclusion, got %+v", settlements)
	}

	f.settings.Set("org-1", service.SettingPayrollWindowMode, service.WindowModeStatusEvent)

	settlements, err = svc.DriverSettlements(ctx, januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settlements) != 1 {
		t.Errorf("legacy mode gates on payable events; expected inclusion, got %+v", settlements)
	}
}

func TestDriverSettlements_OrderedByStartDate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedSettledTrip(f, "trip-b", "ORD-100-02",
		time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 22, 17, 0, 0, 0, time.UTC))
	seedSettledTrip(f, "trip-a", "ORD-100-01",
		time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC))

	settlements, err := newPayrollService(f).DriverSettlements(context.Background(), januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settlements) != 2 {
		t.Fatalf("expected 2 settlements, got %d", len(settlements))
	}
	if settlements[0].TripCode != "ORD-100-01" || settlements[1].TripCode != "ORD-100-02" {
		t.Errorf("expected ascending start-date order, got %s then %s",
			settlements[0].TripCode, settlements[1].TripCode)
	}
}

func TestDriverSettlements_Repeatable(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedSettledTrip(f, "trip-1", "ORD-100-01",
		time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC))

	svc := newPayrollService(f)
	ctx := context.Background()

	first, err := svc.DriverSettlements(ctx, januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.DriverSettlements(ctx, januaryQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results on an unchanged event log:\n%+v\n%+v", first, second)
	}
}

func TestDriverSettlements_IncompletePipeline(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.stages.SetStages("org-2", []domain.ReportStage{
		{ID: "st-1", OrgID: "org-2", Type: domain.TripStatusWaitingForPickup, DisplayOrder: 1},
	})

	q := januaryQuery()
	q.OrgID = "org-2"
	if _, err := newPayrollService(f).DriverSettlements(context.Background(), q); !errors.Is(err, service.ErrPipelineIncomplete) {
		t.Errorf("expected ErrPipelineIncomplete, got %v", err)
	}
}

func TestDriverSettlements_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	svc := newPayrollService(f)
	ctx := context.Background()

	q := januaryQuery()
	q.DriverID = ""
	if _, err := svc.DriverSettlements(ctx, q); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}

	q = januaryQuery()
	q.From, q.To = q.To, q.From
	if _, err := svc.DriverSettlements(ctx, q); !errors.Is(err, service.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}
