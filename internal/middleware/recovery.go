package middleware

import (
	"net/http"
	"quizhub/internal/apperr"
	"quizhub/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Recovery(logger *zap.Logger, reporter telemetry.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", RequestIDFrom(c)),
					zap.Stack("stack"),
				)
				reporter.RecoverPanic(c.Request, rec)

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   apperr.CodeInternal,
					Message: "internal server error",
				})
			}
		}()

		c.Next()
	}
}
