package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"bravework-rental-backend/internal/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Bookings      *BookingHandler
	Escrow        *EscrowHandler
	Notifications *NotificationHandler
	Auth          *AuthMiddleware
	// CreateLimiter wraps booking creation; nil disables rate limiting.
	CreateLimiter func(http.Handler) http.Handler
	Health        Pinger
}

func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, LoggingMiddleware, h.Auth.Handler)

	r.HandleFunc("/healthz", healthHandler(h.Health)).Methods(http.MethodGet).Name("health")

	api := r.PathPrefix("/api/v1").Subrouter()

	var create http.Handler = http.HandlerFunc(h.Bookings.CreateBooking)
	if h.CreateLimiter != nil {
		create = h.CreateLimiter(create)
	}
	api.Handle("/bookings", create).Methods(http.MethodPost).Name("createBooking")
	api.HandleFunc("/bookings", h.Bookings.ListBookings).Methods(http.MethodGet).Name("listBookings")
	api.HandleFunc("/bookings/{id:[0-9]+}", h.Bookings.GetBooking).Methods(http.MethodGet).Name("getBooking")
	api.HandleFunc("/bookings/{id:[0-9]+}/status", h.Bookings.UpdateBookingStatus).Methods(http.MethodPatch).Name("updateBookingStatus")
	api.HandleFunc("/bookings/{id:[0-9]+}/escrow/release", h.Escrow.ReleaseEscrow).Methods(http.MethodPost).Name("releaseEscrow")

	api.HandleFunc("/settlements", h.Escrow.ListSettlements).Methods(http.MethodGet).Name("listSettlements")

	api.HandleFunc("/notifications", h.Notifications.GetNotifications).Methods(http.MethodGet).Name("listNotifications")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", h.Notifications.MarkNotificationRead).Methods(http.MethodPost).Name("markNotificationRead")

	return r
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.ErrorContext(r.Context(), "Health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
