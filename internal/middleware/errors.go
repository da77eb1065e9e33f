package middleware

import (
	"net/http"
	"quizhub/internal/apperr"
	"quizhub/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorHandler renders the last error attached to the context. Application
// errors keep their status and code; anything else becomes a 500 whose text
// is logged and reported but never sent to the client.
func ErrorHandler(logger *zap.Logger, reporter telemetry.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		if appErr, ok := apperr.As(err); ok && appErr.Kind != apperr.KindInternal {
			if appErr.Err != nil {
				logger.Debug("request failed", zap.String("code", appErr.Code), zap.Error(appErr.Err))
			}
			c.JSON(appErr.HTTPStatus(), ErrorResponse{
				Error:   appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			})
			return
		}

		requestID := RequestIDFrom(c)
		logger.Error("unhandled error",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", requestID),
		)
		reporter.CaptureRequestError(c.Request, err, map[string]string{
			"request_id": requestID,
			"route":      c.FullPath(),
		})

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   apperr.CodeInternal,
			Message: "internal server error",
		})
	}
}
