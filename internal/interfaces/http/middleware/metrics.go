package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Metrics records request count, latency and in-flight requests. The route
// label is the matched pattern; unmatched paths are reported as "unmatched".
func Metrics(m *telemetry.ShopMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		start := time.Now()
		m.HTTPRequestStarted(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestFinished(ctx, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
