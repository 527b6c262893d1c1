package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"freight/internal/domain"
)

// Sink delivers notification intents. Delivery is fire-and-forget: a
// failing sink never rolls back the business transaction that produced the
// intent.
type Sink interface {
	Emit(ctx context.Context, intent domain.NotificationIntent) error
}

// operatorAudience is the role set alerted on order and trip transitions.
var operatorAudience = []domain.Role{domain.RoleManager, domain.RoleAccountant}

// OrderInProgressIntent builds the intent fired when an order's first trip
// is created and the order moves to IN_PROGRESS.
func OrderInProgressIntent(order *domain.Order, trip *domain.OrderTrip) domain.NotificationIntent {
	return domain.NotificationIntent{
		Type:     domain.IntentOrderInProgress,
		Audience: operatorAudience,
		Data: map[string]any{
			"order_id":   order.ID,
			"order_code": order.Code,
			"trip_id":    trip.ID,
			"trip_code":  trip.Code,
		},
	}
}

// TripCanceledIntent builds the intent fired when a trip is canceled. The
// assigned driver, if any, is added as a direct recipient.
func TripCanceledIntent(trip *domain.OrderTrip) domain.NotificationIntent {
	intent := domain.NotificationIntent{
		Type:     domain.IntentTripCanceled,
		Audience: operatorAudience,
		Data: map[string]any{
			"trip_id":   trip.ID,
			"trip_code": trip.Code,
			"order_id":  trip.OrderID,
		},
	}

	if trip.DriverID != "" {
		intent.Recipients = []string{trip.DriverID}
		intent.Data["driver_id"] = trip.DriverID
	}

	return intent
}

// NotificationService emits intents to the configured sink. Emission
// failures are logged and swallowed.
type NotificationService struct {
	sink Sink
	log  *logrus.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sink Sink, log *logrus.Logger) *NotificationService {
	return &NotificationService{sink: sink, log: log}
}

// NotifyOrderInProgress signals that an order entered IN_PROGRESS.
func (s *NotificationService) NotifyOrderInProgress(ctx context.Context, order *domain.Order, trip *domain.OrderTrip) {
	s.emit(ctx, OrderInProgressIntent(order, trip))
}

// NotifyTripCanceled signals that a trip was canceled.
func (s *NotificationService) NotifyTripCanceled(ctx context.Context, trip *domain.OrderTrip) {
	s.emit(ctx, TripCanceledIntent(trip))
}

func (s *NotificationService) emit(ctx context.Context, intent domain.NotificationIntent) {
	if s.sink == nil {
		return
	}

	if err := s.sink.Emit(ctx, intent); err != nil {
		s.log.WithError(err).WithField("intent", intent.Type).Warn("notification emission failed")
	}
}

// LogSink is the default sink: it records the intent in the service log.
// Real delivery (push/SMS/email) is wired in by the hosting application.
type LogSink struct {
	log *logrus.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit logs the intent.
func (s *LogSink) Emit(_ context.Context, intent domain.NotificationIntent) error {
	s.log.WithFields(logrus.Fields{
		"type":       intent.Type,
		"audience":   intent.Audience,
		"recipients": intent.Recipients,
	}).Info("notification intent")
	return nil
}

// Ensure LogSink implements Sink.
var _ Sink = (*LogSink)(nil)
