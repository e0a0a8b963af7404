package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/service"
)

type BookingHandler struct {
	bookingSvc service.BookingService
}

func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

type createBookingRequest struct {
	DeviceID int32     `json:"device_id"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
}

type createBookingResponse struct {
	BookingID int32            `json:"booking_id"`
	Booking   *bookingResponse `json:"booking"`
}

type updateStatusRequest struct {
	Status domain.BookingStatus `json:"status"`
	Reason string               `json:"reason"`
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.DeviceID <= 0 {
		badRequest(w, "device_id is required")
		return
	}

	b, err := h.bookingSvc.CreateBooking(r.Context(), actor, req.DeviceID, domain.Window{Start: req.StartAt, End: req.EndAt})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createBookingResponse{BookingID: b.ID, Booking: mapDomainBookingToResponse(b)})
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	page, pageSize, ok := parsePaging(w, r)
	if !ok {
		return
	}
	filter := domain.BookingFilter{
		UserID:   actor.UserID,
		Role:     domain.BookingRole(q.Get("role")),
		Status:   domain.BookingStatus(q.Get("status")),
		Page:     page,
		PageSize: pageSize,
	}

	bookings, count, err := h.bookingSvc.ListBookings(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items:      mapDomainBookingsToResponse(bookings),
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
	})
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b, err := h.bookingSvc.GetBooking(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDomainBookingToResponse(b))
}

func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if !req.Status.Valid() || req.Status == domain.BookingStatusPending {
		badRequest(w, "status must be accepted, declined or cancelled")
		return
	}

	b, err := h.bookingSvc.UpdateStatus(r.Context(), actor, id, req.Status, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDomainBookingToResponse(b))
}

func pathID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return int32(id), true
}

func parsePaging(w http.ResponseWriter, r *http.Request) (int32, int32, bool) {
	q := r.URL.Query()
	page, pageSize := int32(1), int32(20)
	if v := q.Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			badRequest(w, "invalid page")
			return 0, 0, false
		}
		page = int32(n)
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 || n > 100 {
			badRequest(w, "invalid page_size")
			return 0, 0, false
		}
		pageSize = int32(n)
	}
	return page, pageSize, true
}
