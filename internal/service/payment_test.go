package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bravework-rental-backend/internal/config"
	"bravework-rental-backend/internal/domain"
)

type fakeOrders struct {
	data  map[string]interface{}
	order map[string]interface{}
	err   error
}

func (f *fakeOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	f.data = data
	return f.order, f.err
}

func TestRazorpayGateway_CreateEscrowOrder(t *testing.T) {
	b := &domain.Booking{ID: 12, DeviceID: 3, RenterID: 4, TotalAmountCents: 4500}

	t.Run("Success", func(t *testing.T) {
		orders := &fakeOrders{order: map[string]interface{}{"id": "order_abc"}}
		g := &razorpayGateway{orders: orders, currency: "INR"}

		id, err := g.CreateEscrowOrder(context.Background(), b)
		require.NoError(t, err)
		assert.Equal(t, "order_abc", id)
		assert.Equal(t, int64(4500), orders.data["amount"])
		assert.Equal(t, "INR", orders.data["currency"])
		assert.Equal(t, "booking_12", orders.data["receipt"])
	})

	t.Run("SDK error", func(t *testing.T) {
		g := &razorpayGateway{orders: &fakeOrders{err: errors.New("bad key")}, currency: "INR"}
		_, err := g.CreateEscrowOrder(context.Background(), b)
		assert.ErrorContains(t, err, "bad key")
	})

	t.Run("Cancelled context skips the call", func(t *testing.T) {
		orders := &fakeOrders{}
		g := &razorpayGateway{orders: orders, currency: "INR"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := g.CreateEscrowOrder(ctx, b)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, orders.data)
	})
}

func TestNewEmailServiceFromConfig(t *testing.T) {
	cfg := &config.Config{}

	cfg.Email.Provider = "log"
	assert.IsType(t, logEmailService{}, NewEmailServiceFromConfig(cfg))

	cfg.Email.Provider = "sendgrid"
	cfg.Email.SendGridAPIKey = "SG.test"
	assert.IsType(t, &sendgridEmailService{}, NewEmailServiceFromConfig(cfg))

	cfg.Email.Provider = "smtp"
	assert.IsType(t, &emailService{}, NewEmailServiceFromConfig(cfg))
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello,\n\n", greeting(""))
	assert.Equal(t, "Hello Rita,\n\n", greeting("Rita"))
}

func TestRenderNotification(t *testing.T) {
	p := map[string]string{
		"booking_id":    "7",
		"device_id":     "3",
		"start_at":      "2026-05-04T10:00:00Z",
		"end_at":        "2026-05-04T12:00:00Z",
		"reason":        "maintenance",
		"settlement_id": "2",
		"amount_cents":  "3000",
	}

	title, body := renderNotification(domain.TemplateBookingRequested, p)
	assert.Equal(t, "New Booking Request", title)
	assert.Contains(t, body, "device #3")

	title, body = renderNotification(domain.TemplateBookingDeclined, p)
	assert.Equal(t, "Booking Declined", title)
	assert.Contains(t, body, "Reason: maintenance")

	title, body = renderNotification(domain.TemplateEscrowReleased, p)
	assert.Equal(t, "Escrow Released", title)
	assert.Contains(t, body, "Settlement #2 credits 3000 cents")
}

func TestDedupeKey(t *testing.T) {
	a := dedupeKey(domain.TemplateBookingAccepted, 1, 2)
	assert.Equal(t, a, dedupeKey(domain.TemplateBookingAccepted, 1, 2))
	assert.NotEqual(t, a, dedupeKey(domain.TemplateBookingAccepted, 1, 3))
	assert.NotEqual(t, a, dedupeKey(domain.TemplateBookingDeclined, 1, 2))
}
