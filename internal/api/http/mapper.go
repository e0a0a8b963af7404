package http

import (
	"time"

	"bravework-rental-backend/internal/domain"
)

type bookingResponse struct {
	ID                 int32                `json:"id"`
	DeviceID           int32                `json:"device_id"`
	RenterID           int32                `json:"renter_id"`
	OwnerID            int32                `json:"owner_id"`
	StartAt            time.Time            `json:"start_at"`
	EndAt              time.Time            `json:"end_at"`
	TotalAmountCents   int64                `json:"total_amount_cents"`
	Status             domain.BookingStatus `json:"status"`
	EscrowReleased     bool                 `json:"escrow_released"`
	RejectionReason    string               `json:"rejection_reason,omitempty"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	CancelledBy        *int32               `json:"cancelled_by,omitempty"`
	// AdminReleaseAt is set while escrow is held on an accepted booking.
	AdminReleaseAt *time.Time `json:"admin_release_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func mapDomainBookingToResponse(b *domain.Booking) *bookingResponse {
	if b == nil {
		return nil
	}
	resp := &bookingResponse{
		ID:                 b.ID,
		DeviceID:           b.DeviceID,
		RenterID:           b.RenterID,
		OwnerID:            b.OwnerID,
		StartAt:            b.StartAt,
		EndAt:              b.EndAt,
		TotalAmountCents:   b.TotalAmountCents,
		Status:             b.Status,
		EscrowReleased:     b.EscrowReleased,
		RejectionReason:    b.RejectionReason,
		CancellationReason: b.CancellationReason,
		CancelledBy:        b.CancelledBy,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.Status == domain.BookingStatusAccepted && !b.EscrowReleased {
		at := domain.AdminReleaseAt(b)
		resp.AdminReleaseAt = &at
	}
	return resp
}

func mapDomainBookingsToResponse(bookings []domain.Booking) []*bookingResponse {
	out := make([]*bookingResponse, len(bookings))
	for i := range bookings {
		out[i] = mapDomainBookingToResponse(&bookings[i])
	}
	return out
}

type listResponse struct {
	Items      interface{} `json:"items"`
	TotalCount int32       `json:"total_count"`
	Page       int32       `json:"page"`
	PageSize   int32       `json:"page_size"`
}
