package service

import (
	"context"
	"time"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	paymentTimeout = 10 * time.Second
)

type bookingService struct {
	tx       repository.Transactor
	bookings repository.BookingRepository
	relay    Dispatcher
	payments PaymentGateway
	now      Clock
}

func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	relay Dispatcher,
	payments PaymentGateway,
	now Clock,
) BookingService {
	if now == nil {
		now = systemClock
	}
	if payments == nil {
		payments = NewNoopPaymentGateway()
	}
	return &bookingService{
		tx:       tx,
		bookings: bookings,
		relay:    relay,
		payments: payments,
		now:      now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor domain.Identity, deviceID int32, w domain.Window) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "renterID", actor.UserID, "deviceID", deviceID, "start", w.Start, "end", w.End)

	if err := w.Validate(); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "reason", "invalid window")
		return nil, err
	}

	var (
		booking   *domain.Booking
		outboxIDs []int64
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		// Row lock on the device serialises creates competing for its calendar.
		device, err := uow.Devices().GetForUpdate(ctx, deviceID)
		if err != nil {
			return err
		}
		if !device.IsActive {
			return domain.ErrDeviceUnavailable
		}
		if device.OwnerID == actor.UserID {
			return domain.ErrForbidden
		}

		conflict, err := NewConflictChecker(uow.Bookings()).Conflicts(ctx, deviceID, w)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrConflict
		}

		now := s.now()
		b := &domain.Booking{
			DeviceID:         device.ID,
			RenterID:         actor.UserID,
			OwnerID:          device.OwnerID,
			StartAt:          w.Start.UTC(),
			EndAt:            w.End.UTC(),
			TotalAmountCents: device.PriceFor(w),
			Status:           domain.BookingStatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := uow.Bookings().Create(ctx, b); err != nil {
			return err
		}

		id, err := enqueue(ctx, uow.Outbox(), domain.TemplateBookingRequested, b.OwnerID, b,
			map[string]string{"device_name": device.Name})
		if err != nil {
			return err
		}
		outboxIDs = appendID(outboxIDs, id)
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "deviceID", deviceID)
		return nil, err
	}

	s.relay.DispatchAsync(outboxIDs...)
	go s.registerEscrowOrder(*booking)

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID, "totalCents", booking.TotalAmountCents)
	return booking, nil
}

// registerEscrowOrder is fire-and-forget. A gateway failure is logged and
// never reaches the caller.
func (s *bookingService) registerEscrowOrder(b domain.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), paymentTimeout)
	defer cancel()

	orderID, err := s.payments.CreateEscrowOrder(ctx, &b)
	if err != nil {
		logger.Error("Failed to register escrow order", "bookingID", b.ID, "error", err)
		return
	}
	if orderID != "" {
		logger.Info("Registered escrow order", "bookingID", b.ID, "orderID", orderID)
	}
}

func (s *bookingService) AcceptBooking(ctx context.Context, actor domain.Identity, bookingID int32) (*domain.Booking, error) {
	return s.transition(ctx, "bookingService.AcceptBooking", actor, bookingID, func(b *domain.Booking) (int32, domain.NotificationTemplate, error) {
		if actor.UserID != b.OwnerID {
			return 0, "", domain.ErrForbidden
		}
		if !b.Status.CanTransition(domain.BookingStatusAccepted) {
			return 0, "", domain.ErrInvalidTransition
		}
		b.Status = domain.BookingStatusAccepted
		return b.RenterID, domain.TemplateBookingAccepted, nil
	})
}

func (s *bookingService) DeclineBooking(ctx context.Context, actor domain.Identity, bookingID int32, reason string) (*domain.Booking, error) {
	return s.transition(ctx, "bookingService.DeclineBooking", actor, bookingID, func(b *domain.Booking) (int32, domain.NotificationTemplate, error) {
		if actor.UserID != b.OwnerID {
			return 0, "", domain.ErrForbidden
		}
		if reason == "" {
			return 0, "", domain.ErrReasonRequired
		}
		if !b.Status.CanTransition(domain.BookingStatusDeclined) {
			return 0, "", domain.ErrInvalidTransition
		}
		b.Status = domain.BookingStatusDeclined
		b.RejectionReason = reason
		return b.RenterID, domain.TemplateBookingDeclined, nil
	})
}

func (s *bookingService) CancelBooking(ctx context.Context, actor domain.Identity, bookingID int32, reason string) (*domain.Booking, error) {
	return s.transition(ctx, "bookingService.CancelBooking", actor, bookingID, func(b *domain.Booking) (int32, domain.NotificationTemplate, error) {
		if !b.IsParticipant(actor.UserID) {
			return 0, "", domain.ErrForbidden
		}
		if reason == "" {
			return 0, "", domain.ErrReasonRequired
		}
		// Settled bookings are closed even though accepted is otherwise cancellable.
		if b.EscrowReleased || !b.Status.CanTransition(domain.BookingStatusCancelled) {
			return 0, "", domain.ErrInvalidTransition
		}
		b.Status = domain.BookingStatusCancelled
		b.CancellationReason = reason
		cancelledBy := actor.UserID
		b.CancelledBy = &cancelledBy
		return b.Counterparty(actor.UserID), domain.TemplateBookingCancelled, nil
	})
}

func (s *bookingService) UpdateStatus(ctx context.Context, actor domain.Identity, bookingID int32, status domain.BookingStatus, reason string) (*domain.Booking, error) {
	switch status {
	case domain.BookingStatusAccepted:
		return s.AcceptBooking(ctx, actor, bookingID)
	case domain.BookingStatusDeclined:
		return s.DeclineBooking(ctx, actor, bookingID, reason)
	case domain.BookingStatusCancelled:
		return s.CancelBooking(ctx, actor, bookingID, reason)
	default:
		return nil, domain.ErrInvalidTransition
	}
}

// transition loads the booking under a row lock, lets apply authorise and
// mutate it, then persists the change together with the counterparty's
// notification.
func (s *bookingService) transition(
	ctx context.Context,
	method string,
	actor domain.Identity,
	bookingID int32,
	apply func(b *domain.Booking) (int32, domain.NotificationTemplate, error),
) (*domain.Booking, error) {
	logger.EnterMethod(method, "actorID", actor.UserID, "bookingID", bookingID)

	var (
		booking   *domain.Booking
		outboxIDs []int64
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		b, err := uow.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		recipient, tmpl, err := apply(b)
		if err != nil {
			return err
		}
		b.UpdatedAt = s.now()
		if err := uow.Bookings().UpdateStatus(ctx, b); err != nil {
			return err
		}

		id, err := enqueue(ctx, uow.Outbox(), tmpl, recipient, b, nil)
		if err != nil {
			return err
		}
		outboxIDs = appendID(outboxIDs, id)
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "bookingID", bookingID)
		return nil, err
	}

	s.relay.DispatchAsync(outboxIDs...)

	logger.ExitMethod(method, "bookingID", booking.ID, "status", booking.Status)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor domain.Identity, bookingID int32) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(actor.UserID) && !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	logger.EnterMethod("bookingService.ListBookings", "userID", filter.UserID, "role", filter.Role, "status", filter.Status)

	if filter.Role == "" {
		filter.Role = domain.BookingRoleRenter
	}
	if filter.Role != domain.BookingRoleRenter && filter.Role != domain.BookingRoleOwner {
		return nil, 0, domain.ErrInvalidRole
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.ErrInvalidStatus
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	bookings, count, err := s.bookings.List(ctx, filter)
	if err != nil {
		logger.ExitMethodWithError("bookingService.ListBookings", err, "userID", filter.UserID)
		return nil, 0, err
	}
	logger.ExitMethod("bookingService.ListBookings", "count", count)
	return bookings, count, nil
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
