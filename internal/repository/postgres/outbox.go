package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

const outboxColumns = `id, dedupe_key, recipient_id, template, payload, status, attempts, COALESCE(last_error, ''), created_at, sent_at`

// lastErrorLimit keeps failure text from bloating the table.
const lastErrorLimit = 512

type outboxRepository struct {
	q sqlx.ExtContext
}

func NewOutboxRepository(q sqlx.ExtContext) repository.OutboxRepository {
	return &outboxRepository{q: q}
}

// Enqueue stores msg. A message whose dedupe key already exists is ignored.
func (r *outboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}

	query := `INSERT INTO notification_outbox (dedupe_key, recipient_id, template, payload, status, attempts, created_at)
	          VALUES ($1, $2, $3, $4, 'pending', 0, $5)
	          ON CONFLICT (dedupe_key) DO NOTHING
	          RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "notification_outbox", "recipientID", msg.RecipientID, "template", msg.Template)

	err = r.q.QueryRowxContext(ctx, query, msg.DedupeKey, msg.RecipientID, msg.Template, payload, time.Now().UTC()).
		Scan(&msg.ID, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Debug("Outbox message already enqueued", "dedupeKey", msg.DedupeKey)
		return nil
	}
	logger.DatabaseResult("INSERT", 1, err, "outboxID", msg.ID)
	if err != nil {
		return mapError(err)
	}
	msg.Status = domain.OutboxStatusPending
	return nil
}

// Claim leases the given messages for delivery. Messages already sent, leased
// by another worker, or out of attempts are skipped.
func (r *outboxRepository) Claim(ctx context.Context, ids []int64, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error) {
	query := `UPDATE notification_outbox SET attempts = attempts + 1, leased_until = NOW() + ($2 * INTERVAL '1 second')
	          WHERE id IN (
	              SELECT id FROM notification_outbox
	              WHERE id = ANY($1) AND status <> 'sent' AND attempts < $3
	                AND (leased_until IS NULL OR leased_until < NOW())
	              FOR UPDATE SKIP LOCKED)
	          RETURNING ` + outboxColumns
	return r.claim(ctx, query, pq.Array(ids), int64(lease.Seconds()), maxAttempts)
}

// ClaimBatch leases up to limit undelivered messages, oldest first.
func (r *outboxRepository) ClaimBatch(ctx context.Context, limit int32, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error) {
	query := `UPDATE notification_outbox SET attempts = attempts + 1, leased_until = NOW() + ($2 * INTERVAL '1 second')
	          WHERE id IN (
	              SELECT id FROM notification_outbox
	              WHERE status <> 'sent' AND attempts < $3
	                AND (leased_until IS NULL OR leased_until < NOW())
	              ORDER BY id LIMIT $1
	              FOR UPDATE SKIP LOCKED)
	          RETURNING ` + outboxColumns
	return r.claim(ctx, query, limit, int64(lease.Seconds()), maxAttempts)
}

func (r *outboxRepository) claim(ctx context.Context, query string, args ...interface{}) ([]domain.OutboxMessage, error) {
	logger.DatabaseCall("UPDATE", "notification_outbox", "operation", "claim")
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.OutboxMessage
	for rows.Next() {
		var m domain.OutboxMessage
		var payload []byte
		if err := rows.Scan(&m.ID, &m.DedupeKey, &m.RecipientID, &m.Template, &payload, &m.Status,
			&m.Attempts, &m.LastError, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &m.Payload); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("UPDATE", int64(len(msgs)), nil)
	return msgs, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE notification_outbox SET status = 'sent', sent_at = $2, leased_until = NULL, last_error = NULL WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id, time.Now().UTC())
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	if len(reason) > lastErrorLimit {
		reason = reason[:lastErrorLimit]
	}
	query := `UPDATE notification_outbox SET status = 'failed', last_error = $2, leased_until = NULL WHERE id = $1 AND status <> 'sent'`
	_, err := r.q.ExecContext(ctx, query, id, reason)
	return err
}
