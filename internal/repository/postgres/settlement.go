package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

const settlementColumns = `id, booking_id, owner_id, amount_cents, released_by, release_basis, created_at`

type settlementRepository struct {
	q sqlx.ExtContext
}

func NewSettlementRepository(q sqlx.ExtContext) repository.SettlementRepository {
	return &settlementRepository{q: q}
}

// Create inserts the payout row. The unique index on booking_id turns a
// second insert for the same booking into ErrAlreadyReleased.
func (r *settlementRepository) Create(ctx context.Context, s *domain.Settlement) error {
	logger.EnterMethod("settlementRepository.Create", "bookingID", s.BookingID, "ownerID", s.OwnerID)

	query := `INSERT INTO settlements (booking_id, owner_id, amount_cents, released_by, release_basis, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.q.QueryRowxContext(ctx, query,
		s.BookingID, s.OwnerID, s.AmountCents, s.ReleasedBy, s.ReleaseBasis, time.Now().UTC(),
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrAlreadyReleased
		} else {
			err = mapError(err)
		}
		logger.ExitMethodWithError("settlementRepository.Create", err, "bookingID", s.BookingID)
		return err
	}

	logger.ExitMethod("settlementRepository.Create", "settlementID", s.ID)
	return nil
}

func (r *settlementRepository) GetByBooking(ctx context.Context, bookingID int32) (*domain.Settlement, error) {
	s := &domain.Settlement{}
	err := sqlx.GetContext(ctx, r.q, s, `SELECT `+settlementColumns+` FROM settlements WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *settlementRepository) ListByOwner(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Settlement, int32, error) {
	var count int32
	if err := r.q.QueryRowxContext(ctx, `SELECT count(*) FROM settlements WHERE owner_id = $1`, ownerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE owner_id = $1
	          ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	var settlements []domain.Settlement
	if err := sqlx.SelectContext(ctx, r.q, &settlements, query, ownerID, pageSize, pageOffset(page, pageSize)); err != nil {
		return nil, 0, err
	}
	return settlements, count, nil
}
