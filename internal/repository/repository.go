package repository

import (
	"context"
	"time"

	"bravework-rental-backend/internal/domain"
)

type DeviceRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Device, error)
	// GetForUpdate reads the device and holds a row lock until the surrounding
	// transaction ends. Concurrent bookings on one device queue behind it.
	GetForUpdate(ctx context.Context, id int32) (*domain.Device, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id int32) (*domain.Booking, error)
	// ListBlocking returns the pending and accepted bookings of a device
	// whose window overlaps w.
	ListBlocking(ctx context.Context, deviceID int32, w domain.Window) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, b *domain.Booking) error
	// MarkEscrowReleased flips escrow_released from false to true. It reports
	// false when the flag was already set.
	MarkEscrowReleased(ctx context.Context, id int32) (bool, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int32, error)
	ListAwaitingRelease(ctx context.Context, endedBefore time.Time, limit int32) ([]domain.Booking, error)
}

type SettlementRepository interface {
	Create(ctx context.Context, s *domain.Settlement) error
	GetByBooking(ctx context.Context, bookingID int32) (*domain.Settlement, error)
	ListByOwner(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Settlement, int32, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) error
	Claim(ctx context.Context, ids []int64, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error)
	ClaimBatch(ctx context.Context, limit int32, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

type UserRepository interface {
	GetContact(ctx context.Context, id int32) (*domain.UserContact, error)
}

// UnitOfWork exposes the repositories bound to a single transaction.
type UnitOfWork interface {
	Devices() DeviceRepository
	Bookings() BookingRepository
	Settlements() SettlementRepository
	Outbox() OutboxRepository
}

// Transactor runs fn inside one database transaction. fn's error rolls the
// transaction back and is returned unchanged.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
