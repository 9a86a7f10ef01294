package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 carrying the correlation ID
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		correlationID := GetCorrelationID(c)
		logger.Error("Panic recovered",
			"error", recovered,
			"stack", string(debug.Stack()),
			"route", c.FullPath(),
			"method", c.Request.Method,
			"correlation_id", correlationID,
		)

		body := gin.H{"error": gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An internal server error occurred",
		}}
		if correlationID != "" {
			body["correlation_id"] = correlationID
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
