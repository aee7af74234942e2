// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"printer-service/internal/utils"
)

func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		logger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			c.GetString(utils.RequestIDKey),
			c.Writer.Status(),
			time.Since(startTime),
		)
	}
}
