package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-trek/internal/common"
)

// NewMiddleware builds a per-client-IP rate limiting middleware backed by
// redis, allowing perMinute requests in a sliding one minute window.
func NewMiddleware(client *redis.Client, perMinute int) (func(http.Handler) http.Handler, error) {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit store: %w", err)
	}
	instance := limiter.New(store, limiter.Rate{
		Period: time.Minute,
		Limit:  int64(perMinute),
	})
	middleware := mstdlib.NewMiddleware(instance,
		mstdlib.WithErrorHandler(errorHandler),
		mstdlib.WithLimitReachedHandler(limitReachedHandler),
	)
	return middleware.Handler, nil
}

func errorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate limiter unavailable", nil)
}

func limitReachedHandler(w http.ResponseWriter, _ *http.Request) {
	common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", nil)
}
