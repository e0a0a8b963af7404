package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/repository"
)

// outboxNamespace scopes the name-based UUIDs used as outbox dedupe keys.
var outboxNamespace = uuid.MustParse("6f1c8f0e-3a4b-4f6e-9a52-1d2e7b9c0a11")

// dedupeKey is stable for one (event, booking, recipient) so a retried
// transaction cannot record the same notification twice.
func dedupeKey(tmpl domain.NotificationTemplate, bookingID, recipientID int32) string {
	name := fmt.Sprintf("%s:%d:%d", tmpl, bookingID, recipientID)
	return uuid.NewSHA1(outboxNamespace, []byte(name)).String()
}

func bookingPayload(b *domain.Booking) map[string]string {
	p := map[string]string{
		"booking_id":   strconv.Itoa(int(b.ID)),
		"device_id":    strconv.Itoa(int(b.DeviceID)),
		"start_at":     b.StartAt.UTC().Format(time.RFC3339),
		"end_at":       b.EndAt.UTC().Format(time.RFC3339),
		"amount_cents": strconv.FormatInt(b.TotalAmountCents, 10),
		"status":       string(b.Status),
	}
	if b.RejectionReason != "" {
		p["reason"] = b.RejectionReason
	}
	if b.CancellationReason != "" {
		p["reason"] = b.CancellationReason
	}
	return p
}

// enqueue records a notification for recipient in the current transaction
// and returns the new outbox id, or 0 when the message already existed.
func enqueue(ctx context.Context, outbox repository.OutboxRepository, tmpl domain.NotificationTemplate, recipientID int32, b *domain.Booking, extra map[string]string) (int64, error) {
	payload := bookingPayload(b)
	for k, v := range extra {
		payload[k] = v
	}
	msg := &domain.OutboxMessage{
		DedupeKey:   dedupeKey(tmpl, b.ID, recipientID),
		RecipientID: recipientID,
		Template:    tmpl,
		Payload:     payload,
	}
	if err := outbox.Enqueue(ctx, msg); err != nil {
		return 0, fmt.Errorf("failed to enqueue %s notification: %w", tmpl, err)
	}
	return msg.ID, nil
}

func appendID(ids []int64, id int64) []int64 {
	if id == 0 {
		return ids
	}
	return append(ids, id)
}
