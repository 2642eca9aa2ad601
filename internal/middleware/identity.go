package middleware

// identity.go holds the context keys set by JWTAuth and accessors for them.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxAdminID   = "admin_id"
	ctxAdminName = "admin_name"
	ctxRole      = "role"
)

// AdminID returns the authenticated admin id, if any.
func AdminID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxAdminID).(uint64)
	return id, ok && id > 0
}

// AdminName returns the display name from the access token.
func AdminName(c echo.Context) string {
	name, _ := c.Get(ctxAdminName).(string)
	return name
}

// adminKey identifies the caller for rate limiting; unauthenticated
// requests share the "anon" bucket.
func adminKey(c echo.Context) string {
	if id, ok := AdminID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
