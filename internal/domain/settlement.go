package domain

import "time"

// EscrowGracePeriod is how long after a booking ends an admin must wait
// before releasing escrow without the renter's confirmation.
const EscrowGracePeriod = 48 * time.Hour

type ReleaseBasis string

const (
	ReleaseBasisRenterConfirmed ReleaseBasis = "renter_confirmed"
	ReleaseBasisAdminGrace      ReleaseBasis = "admin_grace_period"
)

// Settlement is the payout credited to the device owner when escrow is released.
// Rows are written once and never updated.
type Settlement struct {
	ID           int32        `db:"id" json:"id"`
	BookingID    int32        `db:"booking_id" json:"booking_id"`
	OwnerID      int32        `db:"owner_id" json:"owner_id"`
	AmountCents  int64        `db:"amount_cents" json:"amount_cents"`
	ReleasedBy   int32        `db:"released_by" json:"released_by"`
	ReleaseBasis ReleaseBasis `db:"release_basis" json:"release_basis"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// AdminReleaseAt is the earliest instant an admin may release escrow for b.
func AdminReleaseAt(b *Booking) time.Time {
	return b.EndAt.Add(EscrowGracePeriod)
}

// AuthorizeRelease decides whether actor may release escrow for b at now and
// on what basis. The owner is never eligible, even when also an admin.
// An admin who is not the renter must wait out EscrowGracePeriod; the
// returned *TooEarlyError carries the remaining wait.
func AuthorizeRelease(b *Booking, actor Identity, now time.Time) (ReleaseBasis, error) {
	if actor.UserID == b.OwnerID {
		return "", ErrForbidden
	}
	isRenter := actor.UserID == b.RenterID
	if !isRenter && !actor.IsAdmin {
		return "", ErrForbidden
	}
	if b.EscrowReleased {
		return "", ErrAlreadyReleased
	}
	if b.Status != BookingStatusAccepted {
		return "", ErrInvalidTransition
	}
	if isRenter {
		return ReleaseBasisRenterConfirmed, nil
	}
	releaseAt := AdminReleaseAt(b)
	if now.Before(releaseAt) {
		return "", &TooEarlyError{Remaining: releaseAt.Sub(now)}
	}
	return ReleaseBasisAdminGrace, nil
}
