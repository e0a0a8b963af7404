package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

const bookingColumns = `id, device_id, renter_id, owner_id, start_at, end_at, total_amount_cents, status,
	escrow_released, COALESCE(rejection_reason, '') AS rejection_reason,
	COALESCE(cancellation_reason, '') AS cancellation_reason, cancelled_by, created_at, updated_at`

type bookingRepository struct {
	q sqlx.ExtContext
}

func NewBookingRepository(q sqlx.ExtContext) repository.BookingRepository {
	return &bookingRepository{q: q}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "deviceID", b.DeviceID, "renterID", b.RenterID)

	query := `INSERT INTO bookings (device_id, renter_id, owner_id, start_at, end_at, total_amount_cents, status, escrow_released, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $8) RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	err := r.q.QueryRowxContext(ctx, query,
		b.DeviceID, b.RenterID, b.OwnerID, b.StartAt, b.EndAt, b.TotalAmountCents, b.Status, now,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		err = mapError(err)
		logger.ExitMethodWithError("bookingRepository.Create", err, "deviceID", b.DeviceID)
		return err
	}

	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) get(ctx context.Context, query string, id int32) (*domain.Booking, error) {
	logger.DatabaseCall("SELECT", "bookings", "bookingID", id)
	b := &domain.Booking{}
	err := sqlx.GetContext(ctx, r.q, b, query, id)
	logger.DatabaseResult("SELECT", 1, err, "bookingID", id)
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *bookingRepository) ListBlocking(ctx context.Context, deviceID int32, w domain.Window) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE device_id = $1 AND status IN ('pending', 'accepted') AND start_at < $3 AND end_at > $2`
	logger.DatabaseCall("SELECT", "bookings", "deviceID", deviceID, "start", w.Start, "end", w.End)

	var bookings []domain.Booking
	err := sqlx.SelectContext(ctx, r.q, &bookings, query, deviceID, w.Start, w.End)
	logger.DatabaseResult("SELECT", int64(len(bookings)), err, "deviceID", deviceID)
	if err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET status = $1, rejection_reason = NULLIF($2, ''), cancellation_reason = NULLIF($3, ''),
	          cancelled_by = $4, updated_at = $5 WHERE id = $6`
	now := time.Now().UTC()
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "status", b.Status)

	res, err := r.q.ExecContext(ctx, query, b.Status, b.RejectionReason, b.CancellationReason, b.CancelledBy, now, b.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", b.ID)
		return mapError(err)
	}
	rows, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "bookingID", b.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	b.UpdatedAt = now
	return nil
}

func (r *bookingRepository) MarkEscrowReleased(ctx context.Context, id int32) (bool, error) {
	query := `UPDATE bookings SET escrow_released = TRUE, updated_at = $2 WHERE id = $1 AND escrow_released = FALSE`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", id, "escrow_released", true)

	res, err := r.q.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", id)
		return false, mapError(err)
	}
	rows, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "bookingID", id)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *bookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int32, error) {
	column := "renter_id"
	if f.Role == domain.BookingRoleOwner {
		column = "owner_id"
	}

	where := fmt.Sprintf(" WHERE %s = $1", column)
	args := []interface{}{f.UserID}
	argIdx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}

	var count int32
	if err := r.q.QueryRowxContext(ctx, "SELECT count(*) FROM bookings"+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY start_at DESC, id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, f.PageSize, pageOffset(f.Page, f.PageSize))

	var bookings []domain.Booking
	if err := sqlx.SelectContext(ctx, r.q, &bookings, query, args...); err != nil {
		return nil, 0, err
	}
	return bookings, count, nil
}

func (r *bookingRepository) ListAwaitingRelease(ctx context.Context, endedBefore time.Time, limit int32) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status = 'accepted' AND escrow_released = FALSE AND end_at <= $1
	          ORDER BY end_at ASC LIMIT $2`
	var bookings []domain.Booking
	if err := sqlx.SelectContext(ctx, r.q, &bookings, query, endedBefore, limit); err != nil {
		return nil, err
	}
	return bookings, nil
}
