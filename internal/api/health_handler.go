package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheckContext(ctx context.Context) error
}

// statsProvider is implemented by *sql.DB and database.DB
type statsProvider interface {
	Stats() sql.DBStats
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health pings the database and reports the result
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.HealthCheckContext(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  "unreachable",
			"timestamp": time.Now().UTC(),
		})
		return
	}

	response := gin.H{
		"status":    "healthy",
		"database":  "ok",
		"timestamp": time.Now().UTC(),
	}
	if sp, ok := h.db.(statsProvider); ok {
		stats := sp.Stats()
		response["pool"] = gin.H{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
		}
	}
	c.JSON(http.StatusOK, response)
}
