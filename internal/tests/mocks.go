package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"freight/internal/domain"
	"freight/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is an in-memory implementation of TripRepository with
// the same compare-and-swap semantics as the PostgreSQL repository.
type MockTripRepository struct {
	mu     sync.RWMutex
	trips  map[string]*domain.OrderTrip
	events map[string][]domain.TripStatusEvent

	// Counters for verification
	CreateCallCount       int32
	UpdateCallCount       int32
	AppendStatusCallCount int32

	// Error injection
	CreateError       error
	CreateErrorCount  int32 // how many Create calls fail before succeeding
	UpdateError       error
	AppendStatusError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips:  make(map[string]*domain.OrderTrip),
		events: make(map[string][]domain.TripStatusEvent),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.OrderTrip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

// AddEvent appends a status event without going through the service.
func (m *MockTripRepository) AddEvent(event domain.TripStatusEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.TripID] = append(m.events[event.TripID], event)
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.OrderTrip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		if atomic.AddInt32(&m.CreateErrorCount, -1) >= 0 {
			return m.CreateError
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.trips {
		if existing.OrderID == trip.OrderID && existing.Code == trip.Code {
			return repository.ErrDuplicateCode
		}
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.OrderTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok || !trip.Published {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.OrderTrip, expectedUpdatedAt time.Time) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !stored.UpdatedAt.Equal(expectedUpdatedAt) {
		return repository.ErrConflict
	}
	now := time.Now().UTC()
	if !now.After(stored.UpdatedAt) {
		now = stored.UpdatedAt.Add(time.Nanosecond)
	}
	copy := *trip
	copy.UpdatedAt = now
	m.trips[trip.ID] = &copy
	trip.UpdatedAt = now
	return nil
}

func (m *MockTripRepository) AppendStatus(ctx context.Context, event *domain.TripStatusEvent) error {
	atomic.AddInt32(&m.AppendStatusCallCount, 1)
	if m.AppendStatusError != nil {
		return m.AppendStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.TripID] = append(m.events[event.TripID], *event)
	return nil
}

func (m *MockTripRepository) ListStatusHistory(ctx context.Context, tripID string) ([]domain.TripStatusEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]domain.TripStatusEvent, len(m.events[tripID]))
	copy(history, m.events[tripID])
	return history, nil
}

func (m *MockTripRepository) ListByDriver(ctx context.Context, orgID, driverID string) ([]*domain.OrderTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var trips []*domain.OrderTrip
	for _, trip := range m.trips {
		if trip.OrgID == orgID && trip.DriverID == driverID && trip.Published {
			copy := *trip
			trips = append(trips, &copy)
		}
	}
	return trips, nil
}

func (m *MockTripRepository) CountByOrder(ctx context.Context, orderID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, trip := range m.trips {
		if trip.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.OrderTrip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// CountEvents returns the number of stored events for a trip.
func (m *MockTripRepository) CountEvents(tripID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[tripID])
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	UpdateCallCount int32
	UpdateError     error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.Order)}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok || !order.Published {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *order
	copy.UpdatedAt = time.Now().UTC()
	m.orders[order.ID] = &copy
	return nil
}

// GetOrder returns the stored order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// ──────────────────────────────────────────────
// MOCK REFERENCE DATA REPOSITORIES
// ──────────────────────────────────────────────

// MockStageRepository is an in-memory implementation of StageRepository.
type MockStageRepository struct {
	mu     sync.RWMutex
	stages map[string][]domain.ReportStage
}

// NewMockStageRepository creates a new mock stage repository.
func NewMockStageRepository() *MockStageRepository {
	return &MockStageRepository{stages: make(map[string][]domain.ReportStage)}
}

// SetStages configures an organization's pipeline.
func (m *MockStageRepository) SetStages(orgID string, stages []domain.ReportStage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[orgID] = stages
}

func (m *MockStageRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.ReportStage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stages := make([]domain.ReportStage, len(m.stages[orgID]))
	copy(stages, m.stages[orgID])
	return stages, nil
}

// MockRouteRepository is an in-memory implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{routes: make(map[string]*domain.Route)}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

// MockVehicleRepository is an in-memory implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{vehicles: make(map[string]*domain.Vehicle)}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK TRIP EXPENSE REPOSITORY
// ──────────────────────────────────────────────

// MockTripExpenseRepository is an in-memory implementation of
// TripExpenseRepository.
type MockTripExpenseRepository struct {
	mu    sync.RWMutex
	lines map[string][]domain.TripDriverExpense

	ReplaceCallCount int32
	ReplaceError     error
}

// NewMockTripExpenseRepository creates a new mock trip expense repository.
func NewMockTripExpenseRepository() *MockTripExpenseRepository {
	return &MockTripExpenseRepository{lines: make(map[string][]domain.TripDriverExpense)}
}

// SetLines configures a trip's expense lines.
func (m *MockTripExpenseRepository) SetLines(tripID string, lines []domain.TripDriverExpense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[tripID] = lines
}

func (m *MockTripExpenseRepository) ListByTrip(ctx context.Context, tripID string) ([]domain.TripDriverExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lines := make([]domain.TripDriverExpense, len(m.lines[tripID]))
	copy(lines, m.lines[tripID])
	return lines, nil
}

func (m *MockTripExpenseRepository) ReplaceForTrip(ctx context.Context, tripID string, lines []domain.TripDriverExpense) error {
	atomic.AddInt32(&m.ReplaceCallCount, 1)
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]domain.TripDriverExpense, len(lines))
	copy(stored, lines)
	m.lines[tripID] = stored
	return nil
}

// GetLines returns the stored lines for test assertions.
func (m *MockTripExpenseRepository) GetLines(tripID string) []domain.TripDriverExpense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lines[tripID]
}

// ──────────────────────────────────────────────
// MOCK SETTING REPOSITORY
// ──────────────────────────────────────────────

// MockSettingRepository is an in-memory implementation of SettingRepository.
type MockSettingRepository struct {
	mu       sync.RWMutex
	settings map[string]string
}

// NewMockSettingRepository creates a new mock setting repository.
func NewMockSettingRepository() *MockSettingRepository {
	return &MockSettingRepository{settings: make(map[string]string)}
}

// Set configures a setting value.
func (m *MockSettingRepository) Set(orgID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[orgID+"/"+key] = value
}

func (m *MockSettingRepository) Get(ctx context.Context, orgID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.settings[orgID+"/"+key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockUnitOfWork runs the unit-of-work function directly against the mock
// repositories. Rollback is not simulated; tests assert on call order
// instead (the optimistic check runs before any dependent write).
type MockUnitOfWork struct {
	Trips    *MockTripRepository
	Orders   *MockOrderRepository
	Expenses *MockTripExpenseRepository

	DoCallCount int32
}

// NewMockUnitOfWork creates a new mock unit of work.
func NewMockUnitOfWork(trips *MockTripRepository, orders *MockOrderRepository, expenses *MockTripExpenseRepository) *MockUnitOfWork {
	return &MockUnitOfWork{Trips: trips, Orders: orders, Expenses: expenses}
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	atomic.AddInt32(&m.DoCallCount, 1)
	return fn(repository.Repositories{
		Trips:    m.Trips,
		Orders:   m.Orders,
		Expenses: m.Expenses,
	})
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE & NOTIFICATION SINK
// ──────────────────────────────────────────────

// MockLockStore is an in-memory trip lock.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[tripID] {
		return false, nil
	}
	m.locks[tripID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, tripID)
	return nil
}

// Lock marks a trip as locked by another writer.
func (m *MockLockStore) Lock(tripID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[tripID] = true
}

// MockSink records emitted notification intents.
type MockSink struct {
	mu      sync.Mutex
	intents []domain.NotificationIntent

	EmitError error
}

// NewMockSink creates a new mock notification sink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Emit(ctx context.Context, intent domain.NotificationIntent) error {
	if m.EmitError != nil {
		return m.EmitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, intent)
	return nil
}

// Intents returns the recorded intents.
func (m *MockSink) Intents() []domain.NotificationIntent {
	m.mu.Lock()
	defer m.mu.Unlock()
	intents := make([]domain.NotificationIntent, len(m.intents))
	copy(intents, m.intents)
	return intents
}
