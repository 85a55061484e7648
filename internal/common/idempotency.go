package common

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem guards mutating endpoints against duplicate submissions. The first
// request carrying a given Idempotency-Key claims it in Redis for TTL; any
// repeat within that window is answered with 409 without reaching the handler.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// Middleware applies the idempotency check. Requests without the header pass
// through untouched.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}

		sum := sha256.Sum256([]byte(key))
		claimed, err := i.R.SetNX(r.Context(), "idem:"+hex.EncodeToString(sum[:]), 1, i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store unavailable", nil)
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
