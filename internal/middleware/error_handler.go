package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/blog-api/internal/apperror"
)

// ErrorHandler renders the last error attached to the context as a JSON envelope.
// 4xx responses use status "fail"; 5xx use "error" and hide internal detail
// unless exposeInternal is set.
func ErrorHandler(logger *slog.Logger, exposeInternal bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.HTTPStatus(err)

		if status >= http.StatusInternalServerError {
			logger.Error("❌ [ErrorHandler] Unhandled error",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			body := gin.H{"status": "error", "message": "Something went wrong"}
			if exposeInternal {
				body["error"] = err.Error()
			}
			c.AbortWithStatusJSON(status, body)
			return
		}

		message := err.Error()
		if appErr := apperror.From(err); appErr != nil {
			message = appErr.Message
		}
		c.AbortWithStatusJSON(status, gin.H{"status": "fail", "message": message})
	}
}

// Recovery turns panics into the standard 500 envelope
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("💥 [Recovery] Panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		_ = c.Error(apperror.Internal(fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}

// NotFound handles requests that match no route
func NotFound(c *gin.Context) {
	_ = c.Error(apperror.NotFound(fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)))
}
