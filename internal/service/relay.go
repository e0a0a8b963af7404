package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bravework-rental-backend/internal/config"
	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

type RelayConfig struct {
	DispatchTimeout time.Duration
	Lease           time.Duration
	MaxAttempts     int32
	BatchSize       int32
	Concurrency     int
}

func (c *RelayConfig) setDefaults() {
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 5 * time.Second
	}
	if c.Lease <= 0 {
		c.Lease = time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
}

// Relay delivers outbox messages as in-app notifications and email. The
// inbox write decides success; email is best effort.
type Relay struct {
	outbox repository.OutboxRepository
	notes  repository.NotificationRepository
	users  repository.UserRepository
	email  EmailService
	cfg    RelayConfig
	wg     sync.WaitGroup
}

func NewRelay(
	outbox repository.OutboxRepository,
	notes repository.NotificationRepository,
	users repository.UserRepository,
	email EmailService,
	cfg RelayConfig,
) *Relay {
	cfg.setDefaults()
	return &Relay{
		outbox: outbox,
		notes:  notes,
		users:  users,
		email:  email,
		cfg:    cfg,
	}
}

// DispatchAsync delivers the given messages in the background. It returns
// immediately; anything not delivered within DispatchTimeout is left for
// DispatchPending.
func (r *Relay) DispatchAsync(ids ...int64) {
	if len(ids) == 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.DispatchTimeout)
		defer cancel()

		msgs, err := r.outbox.Claim(ctx, ids, r.cfg.Lease, r.cfg.MaxAttempts)
		if err != nil {
			logger.Error("Failed to claim outbox messages", "ids", ids, "error", err)
			return
		}
		r.deliverAll(ctx, msgs)
	}()
}

// DispatchPending claims one batch of undelivered messages and delivers it.
// It returns the number delivered.
func (r *Relay) DispatchPending(ctx context.Context) (int, error) {
	msgs, err := r.outbox.ClaimBatch(ctx, r.cfg.BatchSize, r.cfg.Lease, r.cfg.MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("failed to claim outbox batch: %w", err)
	}
	return r.deliverAll(ctx, msgs), nil
}

// Wait blocks until background dispatches started by DispatchAsync finish.
func (r *Relay) Wait() {
	r.wg.Wait()
}

func (r *Relay) deliverAll(ctx context.Context, msgs []domain.OutboxMessage) int {
	var delivered atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i := range msgs {
		msg := msgs[i]
		g.Go(func() error {
			if err := r.deliver(gctx, &msg); err != nil {
				logger.Error("Notification delivery failed", "outboxID", msg.ID, "template", msg.Template, "attempt", msg.Attempts, "error", err)
				if markErr := r.outbox.MarkFailed(context.WithoutCancel(gctx), msg.ID, err.Error()); markErr != nil {
					logger.Error("Failed to record delivery failure", "outboxID", msg.ID, "error", markErr)
				}
				return nil
			}
			if err := r.outbox.MarkSent(context.WithoutCancel(gctx), msg.ID); err != nil {
				logger.Error("Failed to mark outbox message sent", "outboxID", msg.ID, "error", err)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(delivered.Load())
}

func (r *Relay) deliver(ctx context.Context, msg *domain.OutboxMessage) error {
	title, body := renderNotification(msg.Template, msg.Payload)

	attrs := make(map[string]string, len(msg.Payload)+1)
	for k, v := range msg.Payload {
		attrs[k] = v
	}
	attrs["type"] = string(msg.Template)

	note := &domain.Notification{
		UserID:     msg.RecipientID,
		Title:      title,
		Message:    body,
		Attributes: attrs,
	}
	if err := r.notes.Create(ctx, note); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	contact, err := r.users.GetContact(ctx, msg.RecipientID)
	if err != nil {
		logger.Warn("No contact for notification recipient", "userID", msg.RecipientID, "error", err)
		return nil
	}
	if contact.Email == "" {
		return nil
	}
	if err := r.email.SendNotification(ctx, contact.Email, contact.Name, title, body); err != nil {
		logger.Error("Failed to send notification email", "userID", msg.RecipientID, "template", msg.Template, "error", err)
	}
	return nil
}

func renderNotification(tmpl domain.NotificationTemplate, p map[string]string) (string, string) {
	window := fmt.Sprintf("%s to %s", p["start_at"], p["end_at"])
	switch tmpl {
	case domain.TemplateBookingRequested:
		device := p["device_name"]
		if device == "" {
			device = "device #" + p["device_id"]
		}
		return "New Booking Request",
			fmt.Sprintf("Booking #%s requests %s for %s.", p["booking_id"], device, window)
	case domain.TemplateBookingAccepted:
		return "Booking Accepted",
			fmt.Sprintf("Your booking #%s for %s has been accepted.", p["booking_id"], window)
	case domain.TemplateBookingDeclined:
		return "Booking Declined",
			fmt.Sprintf("Your booking #%s for %s was declined. Reason: %s", p["booking_id"], window, p["reason"])
	case domain.TemplateBookingCancelled:
		return "Booking Cancelled",
			fmt.Sprintf("Booking #%s for %s was cancelled. Reason: %s", p["booking_id"], window, p["reason"])
	case domain.TemplateEscrowReleased:
		return "Escrow Released",
			fmt.Sprintf("Escrow for booking #%s has been released. Settlement #%s credits %s cents to the owner.",
				p["booking_id"], p["settlement_id"], p["amount_cents"])
	default:
		return "Booking Update", fmt.Sprintf("Booking #%s was updated.", p["booking_id"])
	}
}

// RelayConfigFrom maps the notifications config section onto RelayConfig.
func RelayConfigFrom(cfg *config.Config) RelayConfig {
	return RelayConfig{
		DispatchTimeout: cfg.DispatchTimeout(),
		Lease:           cfg.OutboxLease(),
		MaxAttempts:     int32(cfg.Notifications.MaxAttempts),
		BatchSize:       int32(cfg.Notifications.RelayBatchSize),
		Concurrency:     cfg.Notifications.RelayConcurrency,
	}
}
