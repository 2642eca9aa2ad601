package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// fail writes the uniform error envelope.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"status": "error", "message": message})
}

// logError records err with the request id so a client-facing message can
// stay generic.
func logError(c echo.Context, logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("route", c.Path()),
		zap.Error(err))
	logger.Error(msg, fields...)
}

// NewHTTPErrorHandler renders framework and middleware errors (unknown
// routes, 405, auth and rate limit rejections, panics) in the same envelope
// the handlers use.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if s, ok := he.Message.(string); ok && s != "" {
				message = s
			} else if he.Message != nil {
				message = fmt.Sprint(he.Message)
			}
			if status == http.StatusInternalServerError {
				message = "Internal server error"
			}
			if he.Internal != nil {
				logger.Debug("request rejected",
					zap.Int("status", status),
					zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
					zap.Error(he.Internal))
			}
		}
		if status >= http.StatusInternalServerError {
			logError(c, logger, "unhandled error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = fail(c, status, message)
		}
		if writeErr != nil {
			logger.Warn("write error response failed", zap.Error(writeErr))
		}
	}
}
