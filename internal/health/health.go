package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-trek/internal/common"
)

// Checker probes the service's hard dependencies.
type Checker struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Live reports process liveness; it never touches dependencies.
func (c *Checker) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether postgres and redis answer within a short deadline.
func (c *Checker) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"postgres": "ok", "redis": "ok"}
	healthy := true

	if c.Pool != nil {
		if err := c.Pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
	} else {
		checks["postgres"] = "not configured"
		healthy = false
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	} else {
		checks["redis"] = "not configured"
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, map[string]any{"status": statusWord(healthy), "checks": checks})
}

func statusWord(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "degraded"
}
