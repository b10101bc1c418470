// README: Panic recovery middleware.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"openseat/internal/logger"
)

func Recovery(log *slog.Logger) gin.HandlerFunc {
	log = logger.Action(log, "http_recover")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panicked", "panic", r, "path", c.Request.URL.Path, "request_id", RequestIDFrom(c))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
