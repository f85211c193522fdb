package middleware

import (
	"strconv"

	"telegram-intent-analyzer/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request counts per method, route and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
