package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"bravework-rental-backend/internal/logger"
)

const rateLimitPrefix = "bravework:ratelimit"

// NewRateLimiter builds a per-user limiter for the formatted rate ("10-M").
// A nil redis client keeps counters in process memory.
func NewRateLimiter(formatted string, client redis.UniversalClient) (*stdlib.Middleware, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	lim := limiter.New(store, rate)
	return stdlib.NewMiddleware(lim,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			if id, err := IdentityFromContext(r.Context()); err == nil {
				return "user:" + strconv.Itoa(int(id.UserID))
			}
			return "ip:" + lim.GetIPKey(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeErrorBody(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "Rate limiter unavailable", "error", err)
			writeErrorBody(w, http.StatusServiceUnavailable, "unavailable", "rate limiter unavailable", nil)
		}),
	), nil
}
