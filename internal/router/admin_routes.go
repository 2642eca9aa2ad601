package router

import (
	"github.com/labstack/echo/v4"

	"github.com/glowscan/skincare-admin/internal/handler"
	"github.com/glowscan/skincare-admin/internal/middleware"
	"github.com/glowscan/skincare-admin/internal/utils"
)

// AdminHandlers bundles the handlers mounted under the admin prefix.
type AdminHandlers struct {
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
	Scans     *handler.ScanHandler
	Routine   *handler.RoutineHandler
}

// Limiters are the rate limiting middlewares for the sensitive endpoints.
// A nil entry leaves the route unlimited.
type Limiters struct {
	Auth    echo.MiddlewareFunc // login and refresh, keyed by client ip
	Routine echo.MiddlewareFunc // generate-routine, keyed by admin
}

func orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}

// RegisterAdmin mounts the admin API under prefix (for example "/api").
// Login, refresh and logout are public; everything else needs an ADMIN
// access token.
func RegisterAdmin(e *echo.Echo, prefix string, h AdminHandlers, jwtSecret string, lim Limiters) {
	api := e.Group(prefix)

	pub := api.Group("/admin")
	pub.POST("/login", h.Auth.Login, orPass(lim.Auth))
	pub.POST("/refresh", h.Auth.Refresh, orPass(lim.Auth))
	pub.POST("/logout", h.Auth.Logout)

	g := api.Group("/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.GET("/me", h.Auth.Me)
	g.GET("/dashboard-data", h.Dashboard.Get)

	// ---- Scans ----
	g.GET("/all-scans", h.Scans.List)
	g.GET("/scans/:id", h.Scans.Get)
	g.DELETE("/delete-scan/:id", h.Scans.Delete)
	g.POST("/verify-scan-batch/:id", h.Scans.VerifyBatch)
	g.POST("/flag-scan/:id", h.Scans.Flag)

	// ---- Routine drafting ----
	g.POST("/generate-routine", h.Routine.Generate, orPass(lim.Routine))
}
