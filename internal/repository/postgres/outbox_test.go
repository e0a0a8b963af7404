package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/repository/postgres"
)

var outboxRowColumns = []string{
	"id", "dedupe_key", "recipient_id", "template", "payload", "status", "attempts", "last_error", "created_at", "sent_at",
}

func TestOutboxRepository_Enqueue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOutboxRepository(db)
	ctx := context.Background()

	newMsg := func() *domain.OutboxMessage {
		return &domain.OutboxMessage{
			DedupeKey:   "c0ffee",
			RecipientID: 2,
			Template:    domain.TemplateBookingRequested,
			Payload:     map[string]string{"booking_id": "11"},
		}
	}

	t.Run("Inserts new message", func(t *testing.T) {
		msg := newMsg()
		mock.ExpectQuery("INSERT INTO notification_outbox(.+)ON CONFLICT \\(dedupe_key\\) DO NOTHING").
			WithArgs("c0ffee", int32(2), domain.TemplateBookingRequested, []byte(`{"booking_id":"11"}`), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), time.Now()))

		require.NoError(t, repo.Enqueue(ctx, msg))
		assert.Equal(t, int64(9), msg.ID)
		assert.Equal(t, domain.OutboxStatusPending, msg.Status)
	})

	t.Run("Duplicate dedupe key is ignored", func(t *testing.T) {
		msg := newMsg()
		mock.ExpectQuery("INSERT INTO notification_outbox").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

		require.NoError(t, repo.Enqueue(ctx, msg))
		assert.Zero(t, msg.ID)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_Claim(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOutboxRepository(db)

	mock.ExpectQuery("UPDATE notification_outbox SET attempts = attempts \\+ 1(.+)FOR UPDATE SKIP LOCKED").
		WithArgs(sqlmock.AnyArg(), int64(60), int32(5)).
		WillReturnRows(sqlmock.NewRows(outboxRowColumns).
			AddRow(int64(9), "c0ffee", 2, "booking_requested", []byte(`{"booking_id":"11"}`), "pending", 1, "", time.Now(), nil))

	msgs, err := repo.Claim(context.Background(), []int64{9}, time.Minute, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.TemplateBookingRequested, msgs[0].Template)
	assert.Equal(t, "11", msgs[0].Payload["booking_id"])
	assert.Equal(t, int32(1), msgs[0].Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOutboxRepository(db)

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	mock.ExpectExec("UPDATE notification_outbox SET status = 'failed'").
		WithArgs(int64(9), string(long[:512])).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), 9, string(long)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewSettlementRepository(db)
	ctx := context.Background()

	newSettlement := func() *domain.Settlement {
		return &domain.Settlement{
			BookingID: 11, OwnerID: 2, AmountCents: 3000, ReleasedBy: 1,
			ReleaseBasis: domain.ReleaseBasisRenterConfirmed,
		}
	}

	t.Run("Success", func(t *testing.T) {
		s := newSettlement()
		mock.ExpectQuery("INSERT INTO settlements").
			WithArgs(s.BookingID, s.OwnerID, s.AmountCents, s.ReleasedBy, s.ReleaseBasis, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, time.Now()))

		require.NoError(t, repo.Create(ctx, s))
		assert.Equal(t, int32(4), s.ID)
	})

	t.Run("Unique violation means already released", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO settlements").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "settlements_booking_id_key"})

		err := repo.Create(ctx, newSettlement())
		assert.ErrorIs(t, err, domain.ErrAlreadyReleased)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRepository_ListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewSettlementRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM settlements WHERE owner_id = \\$1").
		WithArgs(int32(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM settlements WHERE owner_id = \\$1").
		WithArgs(int32(2), int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "owner_id", "amount_cents", "released_by", "release_basis", "created_at"}).
			AddRow(4, 11, 2, 3000, 1, "renter_confirmed", time.Now()))

	items, count, err := repo.ListByOwner(context.Background(), 2, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int32(1), count)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ReleaseBasisRenterConfirmed, items[0].ReleaseBasis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewNotificationRepository(db)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		n := &domain.Notification{UserID: 1, Title: "Booking Accepted", Message: "ok", Attributes: map[string]string{"type": "booking_accepted"}}
		mock.ExpectQuery("INSERT INTO notifications").
			WithArgs(int32(1), "Booking Accepted", "ok", false, []byte(`{"type":"booking_accepted"}`), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))

		require.NoError(t, repo.Create(ctx, n))
		assert.Equal(t, int32(77), n.ID)
	})

	t.Run("MarkAsRead for another user", func(t *testing.T) {
		mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
			WithArgs(int32(77), int32(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.MarkAsRead(ctx, 77, 2), domain.ErrNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetContact(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewUserRepository(db)

	mock.ExpectQuery("SELECT id, email, COALESCE\\(name, ''\\) AS name FROM users WHERE id = \\$1").
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).AddRow(1, "rita@example.com", "Rita"))

	c, err := repo.GetContact(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "rita@example.com", c.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
