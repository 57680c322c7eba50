package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves operational endpoints
type SystemHandler struct {
	db      Pinger
	version string
	now     func() time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version, now: time.Now}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{
		"time":    h.now().UTC().Format(time.RFC3339),
		"version": h.version,
	}
	if err := h.db.Ping(c.Request.Context()); err != nil {
		logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "healthy"
	body["database"] = "ok"
	c.JSON(http.StatusOK, body)
}
