package domain

// Role identifies an operator audience for a notification.
type Role string

const (
	RoleManager    Role = "MANAGER"
	RoleAccountant Role = "ACCOUNTANT"
)

// NotificationIntentType identifies the business event behind an intent.
type NotificationIntentType string

const (
	IntentOrderInProgress NotificationIntentType = "ORDER_IN_PROGRESS"
	IntentTripCanceled    NotificationIntentType = "TRIP_CANCELED"
)

// NotificationIntent describes a notification the engine has decided should
// fire. Delivery (push/SMS/email) is an external collaborator's concern;
// the engine only decides audience and payload.
type NotificationIntent struct {
	Type       NotificationIntentType
	Audience   []Role
	Recipients []string
	Data       map[string]any
}
