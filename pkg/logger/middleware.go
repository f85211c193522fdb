package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware returns a Gin middleware that logs each request after it
// completes, tagged with the request ID set by the request-id middleware.
func Middleware(log *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		reqLog := log.WithRequestID(c.GetString("requestID"))
		reqLog.LogRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
