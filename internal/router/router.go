package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/handler"
	"github.com/glowscan/skincare-admin/internal/metrics"
	"github.com/glowscan/skincare-admin/internal/middleware"
)

// RegisterMiddleware installs the middleware every request goes through.
// The request id comes first so the logger and error handler can see it.
// CORS sits at the root so preflight requests are answered before routing.
func RegisterMiddleware(e *echo.Echo, prefix string, logger *zap.Logger, m *metrics.Metrics) {
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	if m != nil {
		e.Use(m.Middleware())
	}
	e.Use(echomw.Recover())
	e.Use(CORS(prefix))
}

// RegisterRoutes registers the unauthenticated operational endpoints and
// the uploaded image files.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler, uploads *handler.UploadsHandler, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready.Ready)
	}
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	if uploads != nil {
		e.GET("/uploads/*", uploads.Serve)
		e.HEAD("/uploads/*", uploads.Serve)
	}
}

// CORS returns the policy applied to the admin API under prefix: any
// origin, the usual methods and the Authorization header.
func CORS(prefix string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		Skipper: func(c echo.Context) bool {
			return prefix != "" && !strings.HasPrefix(c.Request().URL.Path, prefix+"/")
		},
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{
			echo.HeaderXRequestID,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			echo.HeaderRetryAfter,
		},
	})
}
