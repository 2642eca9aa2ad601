package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/glowscan/skincare-admin/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the admin's id, name and role into the request context. The
// provided secret must match the one used when issuing tokens. Failures are
// returned as *echo.HTTPError so the central error handler renders them in
// the standard envelope.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <jwt>"; the scheme is matched
			// case-insensitively.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
			}

			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token").SetInternal(err)
			}
			adminID, _ := claims.AdminID() // validated by ParseAccessToken

			c.Set(ctxAdminID, adminID)
			c.Set(ctxAdminName, claims.Name)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}
