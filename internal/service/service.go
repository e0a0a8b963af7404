package service

import (
	"context"
	"time"

	"bravework-rental-backend/internal/domain"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

type ConflictChecker interface {
	// Conflicts reports whether w overlaps a pending or accepted booking of
	// the device. Callers must validate w first.
	Conflicts(ctx context.Context, deviceID int32, w domain.Window) (bool, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor domain.Identity, deviceID int32, w domain.Window) (*domain.Booking, error)
	AcceptBooking(ctx context.Context, actor domain.Identity, bookingID int32) (*domain.Booking, error)
	DeclineBooking(ctx context.Context, actor domain.Identity, bookingID int32, reason string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actor domain.Identity, bookingID int32, reason string) (*domain.Booking, error)
	// UpdateStatus dispatches to Accept, Decline or Cancel by target status.
	UpdateStatus(ctx context.Context, actor domain.Identity, bookingID int32, status domain.BookingStatus, reason string) (*domain.Booking, error)
	GetBooking(ctx context.Context, actor domain.Identity, bookingID int32) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int32, error)
}

type EscrowService interface {
	ReleaseEscrow(ctx context.Context, actor domain.Identity, bookingID int32) (*domain.Settlement, error)
	ListSettlements(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Settlement, int32, error)
	// ListStaleEscrows returns accepted, unreleased bookings whose admin grace
	// period has already elapsed.
	ListStaleEscrows(ctx context.Context, limit int32) ([]domain.Booking, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// Dispatcher delivers outbox messages after the transaction that recorded
// them has committed.
type Dispatcher interface {
	DispatchAsync(ids ...int64)
	DispatchPending(ctx context.Context) (int, error)
}

type EmailService interface {
	SendNotification(ctx context.Context, toEmail, toName, subject, body string) error
	SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error
}

// PaymentGateway registers the amount held in escrow with the payment
// provider. It is informational; booking state never depends on it.
type PaymentGateway interface {
	CreateEscrowOrder(ctx context.Context, b *domain.Booking) (string, error)
}
