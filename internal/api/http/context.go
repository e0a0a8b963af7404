package http

import (
	"context"
	"errors"

	"bravework-rental-backend/internal/domain"
)

type identityKey struct{}

// ErrUnauthenticated is returned when a handler runs without an identity.
var ErrUnauthenticated = errors.New("authentication required")

func withIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity set by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (domain.Identity, error) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok || id.UserID <= 0 {
		return domain.Identity{}, ErrUnauthenticated
	}
	return id, nil
}
