package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/wavecard/guard/internal/infrastructure/persistence/postgres"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	db    *postgres.Connection
	redis redis.UniversalClient
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db *postgres.Connection, rdb redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

// LivenessCheck reports the process is up.
// GET /health/live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// ReadinessCheck verifies the database and Redis are reachable.
// GET /health/ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"checks": checks})
}
