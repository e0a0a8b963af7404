package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository"
)

const deviceColumns = `id, owner_id, name, hourly_rate_cents, is_active, created_at`

type deviceRepository struct {
	q sqlx.ExtContext
}

func NewDeviceRepository(q sqlx.ExtContext) repository.DeviceRepository {
	return &deviceRepository{q: q}
}

func (r *deviceRepository) GetByID(ctx context.Context, id int32) (*domain.Device, error) {
	return r.get(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
}

func (r *deviceRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Device, error) {
	return r.get(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1 FOR UPDATE`, id)
}

func (r *deviceRepository) get(ctx context.Context, query string, id int32) (*domain.Device, error) {
	logger.DatabaseCall("SELECT", "devices", "deviceID", id)
	d := &domain.Device{}
	err := sqlx.GetContext(ctx, r.q, d, query, id)
	logger.DatabaseResult("SELECT", 1, err, "deviceID", id)
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}
