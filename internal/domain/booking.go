package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusDeclined  BookingStatus = "declined"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transition can leave the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusDeclined || s == BookingStatusCancelled
}

// BlocksSlot reports whether a booking in this status reserves its window.
// Pending requests hold the slot until they are declined or cancelled.
func (s BookingStatus) BlocksSlot() bool {
	return s == BookingStatusPending || s == BookingStatusAccepted
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusDeclined, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransition encodes the lifecycle graph:
//
//	pending  -> accepted | declined | cancelled
//	accepted -> cancelled
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return to == BookingStatusAccepted || to == BookingStatusDeclined || to == BookingStatusCancelled
	case BookingStatusAccepted:
		return to == BookingStatusCancelled
	}
	return false
}

type BookingRole string

const (
	BookingRoleRenter BookingRole = "renter"
	BookingRoleOwner  BookingRole = "owner"
)

type Booking struct {
	ID       int32 `db:"id" json:"id"`
	DeviceID int32 `db:"device_id" json:"device_id"`
	RenterID int32 `db:"renter_id" json:"renter_id"`
	// OwnerID is captured from the device when the booking is created.
	OwnerID            int32         `db:"owner_id" json:"owner_id"`
	StartAt            time.Time     `db:"start_at" json:"start_at"`
	EndAt              time.Time     `db:"end_at" json:"end_at"`
	TotalAmountCents   int64         `db:"total_amount_cents" json:"total_amount_cents"`
	Status             BookingStatus `db:"status" json:"status"`
	EscrowReleased     bool          `db:"escrow_released" json:"escrow_released"`
	RejectionReason    string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CancellationReason string        `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledBy        *int32        `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

func (b *Booking) Window() Window {
	return Window{Start: b.StartAt, End: b.EndAt}
}

// IsParticipant reports whether userID is the renter or the device owner.
func (b *Booking) IsParticipant(userID int32) bool {
	return b.RenterID == userID || b.OwnerID == userID
}

// Counterparty returns the participant who is not actorID.
func (b *Booking) Counterparty(actorID int32) int32 {
	if actorID == b.RenterID {
		return b.OwnerID
	}
	return b.RenterID
}

// BookingFilter narrows ListBookings results.
type BookingFilter struct {
	UserID   int32
	Role     BookingRole
	Status   BookingStatus
	Page     int32
	PageSize int32
}
