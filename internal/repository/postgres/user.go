package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/repository"
)

// userRepository reads contact details from the users table owned by the
// identity service. It never writes.
type userRepository struct {
	q sqlx.ExtContext
}

func NewUserRepository(q sqlx.ExtContext) repository.UserRepository {
	return &userRepository{q: q}
}

func (r *userRepository) GetContact(ctx context.Context, id int32) (*domain.UserContact, error) {
	u := &domain.UserContact{}
	err := sqlx.GetContext(ctx, r.q, u, `SELECT id, email, COALESCE(name, '') AS name FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
