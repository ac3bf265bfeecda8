package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs every request with zap: method, path, status code,
// latency, client IP, query, and any Gin errors. The log level follows the
// response status (5xx error, 4xx warn, otherwise info).
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RequestLogger requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		start := time.Now()

		// Copy path and query before downstream handlers can modify them.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		logFields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			logFields = append(logFields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			logFields = append(logFields, zap.String("gin_errors", c.Errors.String()))
		}

		if statusCode >= http.StatusInternalServerError {
			logger.Error("Incoming Request", logFields...)
		} else if statusCode >= http.StatusBadRequest {
			logger.Warn("Incoming Request", logFields...)
		} else {
			logger.Info("Incoming Request", logFields...)
		}
	}
}
