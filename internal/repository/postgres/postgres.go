package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

const defaultTxTimeout = 10 * time.Second

// pq error codes the repositories translate into domain errors.
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

// PoolConfig tunes the connection pool opened by Open.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to Postgres through lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string, pool PoolConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

type Store struct {
	db        *sqlx.DB
	txTimeout time.Duration
	repository.DeviceRepository
	repository.BookingRepository
	repository.SettlementRepository
	repository.OutboxRepository
	repository.NotificationRepository
	repository.UserRepository
}

func NewStore(db *sqlx.DB, txTimeout time.Duration) *Store {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &Store{
		db:                     db,
		txTimeout:              txTimeout,
		DeviceRepository:       NewDeviceRepository(db),
		BookingRepository:      NewBookingRepository(db),
		SettlementRepository:   NewSettlementRepository(db),
		OutboxRepository:       NewOutboxRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		UserRepository:         NewUserRepository(db),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTransaction runs fn in a READ COMMITTED transaction. Callers serialise
// competing writers with row locks taken through the UnitOfWork.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txCtx, &unitOfWork{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

type unitOfWork struct {
	tx *sqlx.Tx
}

func (u *unitOfWork) Devices() repository.DeviceRepository         { return NewDeviceRepository(u.tx) }
func (u *unitOfWork) Bookings() repository.BookingRepository       { return NewBookingRepository(u.tx) }
func (u *unitOfWork) Settlements() repository.SettlementRepository { return NewSettlementRepository(u.tx) }
func (u *unitOfWork) Outbox() repository.OutboxRepository          { return NewOutboxRepository(u.tx) }

// mapError translates driver errors the domain cares about.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeExclusionViolation:
			logger.Debug("Exclusion constraint rejected write", "constraint", pqErr.Constraint)
			return domain.ErrConflict
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

func pageOffset(page, pageSize int32) int32 {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
