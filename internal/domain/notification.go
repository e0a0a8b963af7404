package domain

import "time"

// Notification is an in-app inbox entry produced by the notification relay.
type Notification struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}

type NotificationTemplate string

const (
	TemplateBookingRequested NotificationTemplate = "booking_requested"
	TemplateBookingAccepted  NotificationTemplate = "booking_accepted"
	TemplateBookingDeclined  NotificationTemplate = "booking_declined"
	TemplateBookingCancelled NotificationTemplate = "booking_cancelled"
	TemplateEscrowReleased   NotificationTemplate = "escrow_released"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage is a notification recorded in the same transaction as the
// domain change that caused it. Delivery happens after commit.
type OutboxMessage struct {
	ID          int64                `json:"id"`
	DedupeKey   string               `json:"dedupe_key"`
	RecipientID int32                `json:"recipient_id"`
	Template    NotificationTemplate `json:"template"`
	Payload     map[string]string    `json:"payload"`
	Status      OutboxStatus         `json:"status"`
	Attempts    int32                `json:"attempts"`
	LastError   string               `json:"last_error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	SentAt      *time.Time           `json:"sent_at,omitempty"`
}
