package service

import (
	"context"
	"strconv"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

type escrowService struct {
	tx          repository.Transactor
	bookings    repository.BookingRepository
	settlements repository.SettlementRepository
	relay       Dispatcher
	now         Clock
}

func NewEscrowService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	settlements repository.SettlementRepository,
	relay Dispatcher,
	now Clock,
) EscrowService {
	if now == nil {
		now = systemClock
	}
	return &escrowService{
		tx:          tx,
		bookings:    bookings,
		settlements: settlements,
		relay:       relay,
		now:         now,
	}
}

func (s *escrowService) ReleaseEscrow(ctx context.Context, actor domain.Identity, bookingID int32) (*domain.Settlement, error) {
	logger.EnterMethod("escrowService.ReleaseEscrow", "actorID", actor.UserID, "isAdmin", actor.IsAdmin, "bookingID", bookingID)

	var (
		settlement *domain.Settlement
		outboxIDs  []int64
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		b, err := uow.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		now := s.now()
		basis, err := domain.AuthorizeRelease(b, actor, now)
		if err != nil {
			return err
		}

		released, err := uow.Bookings().MarkEscrowReleased(ctx, b.ID)
		if err != nil {
			return err
		}
		if !released {
			return domain.ErrAlreadyReleased
		}
		b.EscrowReleased = true

		st := &domain.Settlement{
			BookingID:    b.ID,
			OwnerID:      b.OwnerID,
			AmountCents:  b.TotalAmountCents,
			ReleasedBy:   actor.UserID,
			ReleaseBasis: basis,
			CreatedAt:    now,
		}
		if err := uow.Settlements().Create(ctx, st); err != nil {
			return err
		}

		extra := map[string]string{
			"settlement_id": strconv.Itoa(int(st.ID)),
			"release_basis": string(basis),
		}
		for _, recipient := range []int32{b.RenterID, b.OwnerID} {
			id, err := enqueue(ctx, uow.Outbox(), domain.TemplateEscrowReleased, recipient, b, extra)
			if err != nil {
				return err
			}
			outboxIDs = appendID(outboxIDs, id)
		}
		settlement = st
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("escrowService.ReleaseEscrow", err, "bookingID", bookingID)
		return nil, err
	}

	s.relay.DispatchAsync(outboxIDs...)

	logger.ExitMethod("escrowService.ReleaseEscrow", "settlementID", settlement.ID, "basis", settlement.ReleaseBasis)
	return settlement, nil
}

func (s *escrowService) ListSettlements(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Settlement, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.settlements.ListByOwner(ctx, ownerID, page, pageSize)
}

func (s *escrowService) ListStaleEscrows(ctx context.Context, limit int32) ([]domain.Booking, error) {
	cutoff := s.now().Add(-domain.EscrowGracePeriod)
	return s.bookings.ListAwaitingRelease(ctx, cutoff, limit)
}
