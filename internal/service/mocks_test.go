package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/repository"
)

// MockDeviceRepo
type MockDeviceRepo struct {
	mock.Mock
}

func (m *MockDeviceRepo) GetByID(ctx context.Context, id int32) (*domain.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Device), args.Error(1)
}
func (m *MockDeviceRepo) GetForUpdate(ctx context.Context, id int32) (*domain.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Device), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) GetForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListBlocking(ctx context.Context, deviceID int32, w domain.Window) ([]domain.Booking, error) {
	args := m.Called(ctx, deviceID, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) UpdateStatus(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBookingRepo) MarkEscrowReleased(ctx context.Context, id int32) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) ListAwaitingRelease(ctx context.Context, endedBefore time.Time, limit int32) ([]domain.Booking, error) {
	args := m.Called(ctx, endedBefore, limit)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockSettlementRepo
type MockSettlementRepo struct {
	mock.Mock
}

func (m *MockSettlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSettlementRepo) GetByBooking(ctx context.Context, bookingID int32) (*domain.Settlement, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}
func (m *MockSettlementRepo) ListByOwner(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Settlement, int32, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]domain.Settlement), args.Get(1).(int32), args.Error(2)
}

// MockOutboxRepo
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *MockOutboxRepo) Claim(ctx context.Context, ids []int64, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error) {
	args := m.Called(ctx, ids, lease, maxAttempts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxMessage), args.Error(1)
}
func (m *MockOutboxRepo) ClaimBatch(ctx context.Context, limit int32, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error) {
	args := m.Called(ctx, limit, lease, maxAttempts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxMessage), args.Error(1)
}
func (m *MockOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockOutboxRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetContact(ctx context.Context, id int32) (*domain.UserContact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserContact), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendNotification(ctx context.Context, toEmail, toName, subject, body string) error {
	args := m.Called(ctx, toEmail, toName, subject, body)
	return args.Error(0)
}
func (m *MockEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	args := m.Called(ctx, adminEmail, subject, message)
	return args.Error(0)
}

// MockPaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateEscrowOrder(ctx context.Context, b *domain.Booking) (string, error) {
	args := m.Called(ctx, b)
	return args.String(0), args.Error(1)
}

// recordingDispatcher captures the outbox ids handed over after commit.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []int64
}

func (d *recordingDispatcher) DispatchAsync(ids ...int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, ids...)
}

func (d *recordingDispatcher) DispatchPending(ctx context.Context) (int, error) {
	return 0, nil
}

func (d *recordingDispatcher) dispatched() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), d.ids...)
}

// mockUoW hands out the mock repositories as a unit of work.
type mockUoW struct {
	devices     *MockDeviceRepo
	bookings    *MockBookingRepo
	settlements *MockSettlementRepo
	outbox      *MockOutboxRepo
}

func newMockUoW() *mockUoW {
	return &mockUoW{
		devices:     new(MockDeviceRepo),
		bookings:    new(MockBookingRepo),
		settlements: new(MockSettlementRepo),
		outbox:      new(MockOutboxRepo),
	}
}

func (u *mockUoW) Devices() repository.DeviceRepository         { return u.devices }
func (u *mockUoW) Bookings() repository.BookingRepository       { return u.bookings }
func (u *mockUoW) Settlements() repository.SettlementRepository { return u.settlements }
func (u *mockUoW) Outbox() repository.OutboxRepository          { return u.outbox }

func (u *mockUoW) assertExpectations(t mock.TestingT) {
	u.devices.AssertExpectations(t)
	u.bookings.AssertExpectations(t)
	u.settlements.AssertExpectations(t)
	u.outbox.AssertExpectations(t)
}

// mockTransactor runs fn directly against the mock unit of work.
type mockTransactor struct {
	uow *mockUoW
}

func (m *mockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	return fn(ctx, m.uow)
}

// enqueueWithID makes Enqueue assign sequential outbox ids.
func enqueueWithID(outbox *MockOutboxRepo, first int64) {
	next := first
	outbox.On("Enqueue", mock.Anything, mock.AnythingOfType("*domain.OutboxMessage")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.OutboxMessage).ID = next
			next++
		}).
		Return(nil)
}
