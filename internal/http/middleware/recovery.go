// README: Panic recovery middleware.
package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook/internal/logger"
)

func Recovery(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					logger.String("path", c.Request.URL.Path),
					logger.String("panic", fmt.Sprint(r)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": "Internal"})
			}
		}()
		c.Next()
	}
}
