package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the process is running. It returns a
// plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ReadyHandler reports whether the dependencies needed to serve traffic are
// reachable. Redis is optional: its absence is reported but never fails the
// check.
type ReadyHandler struct {
	db     Pinger
	rdb    *redis.Client
	logger *zap.Logger
}

func NewReadyHandler(db Pinger, rdb *redis.Client, logger *zap.Logger) *ReadyHandler {
	return &ReadyHandler{db: db, rdb: rdb, logger: logger}
}

// Ready handles GET /readyz.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := echo.Map{"status": "ok", "database": "up", "redis": "disabled"}

	if err := h.db.PingContext(ctx); err != nil {
		logError(c, h.logger, "readiness: database ping failed", err)
		status = http.StatusServiceUnavailable
		body["status"] = "error"
		body["database"] = "down"
	}
	if h.rdb != nil {
		body["redis"] = "up"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			body["redis"] = "down"
		}
	}
	return c.JSON(status, body)
}
