package service

import (
	"context"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/repository"
)

type conflictChecker struct {
	bookings repository.BookingRepository
}

// NewConflictChecker checks windows against bookings. Inside a transaction
// pass the UnitOfWork's repository so the read sees the held device lock.
func NewConflictChecker(bookings repository.BookingRepository) ConflictChecker {
	return &conflictChecker{bookings: bookings}
}

func (c *conflictChecker) Conflicts(ctx context.Context, deviceID int32, w domain.Window) (bool, error) {
	existing, err := c.bookings.ListBlocking(ctx, deviceID, w)
	if err != nil {
		return false, err
	}
	for i := range existing {
		b := &existing[i]
		if b.Status.BlocksSlot() && b.Window().Overlaps(w) {
			return true, nil
		}
	}
	return false, nil
}
