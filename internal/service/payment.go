package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/razorpay/razorpay-go"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
)

// orderCreator is the slice of the razorpay SDK the gateway uses.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type razorpayGateway struct {
	orders   orderCreator
	currency string
}

func NewRazorpayGateway(keyID, keySecret, currency string) PaymentGateway {
	client := razorpay.NewClient(keyID, keySecret)
	return &razorpayGateway{orders: client.Order, currency: currency}
}

// CreateEscrowOrder opens a razorpay order for the booking total. The booking
// id is the receipt so the order can be matched on reconciliation.
func (g *razorpayGateway) CreateEscrowOrder(ctx context.Context, b *domain.Booking) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data := map[string]interface{}{
		"amount":   b.TotalAmountCents,
		"currency": g.currency,
		"receipt":  "booking_" + strconv.Itoa(int(b.ID)),
		"notes": map[string]interface{}{
			"booking_id": b.ID,
			"device_id":  b.DeviceID,
			"renter_id":  b.RenterID,
		},
	}

	logger.ExternalServiceCall("razorpay", "Order.Create", "bookingID", b.ID, "amount", b.TotalAmountCents)
	order, err := g.orders.Create(data, nil)
	logger.ExternalServiceResult("razorpay", "Order.Create", err, "bookingID", b.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create razorpay order: %w", err)
	}
	id, _ := order["id"].(string)
	return id, nil
}

type noopPaymentGateway struct{}

func NewNoopPaymentGateway() PaymentGateway {
	return noopPaymentGateway{}
}

func (noopPaymentGateway) CreateEscrowOrder(context.Context, *domain.Booking) (string, error) {
	return "", nil
}
