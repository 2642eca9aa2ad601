package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/glowscan/skincare-admin/internal/config"
	"github.com/glowscan/skincare-admin/internal/utils"
)

const secret = "test-secret"

func ok(c echo.Context) error {
	id, _ := AdminID(c)
	return c.String(http.StatusOK, strconv.FormatUint(id, 10)+":"+AdminName(c))
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", ok, JWTAuth(secret), RequireRole(utils.RoleAdmin))

	tok, err := utils.NewAccessToken(secret, 7, "Root", 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7:Root", rec.Body.String())

	for name, header := range map[string]string{
		"missing":  "",
		"scheme":   "Basic abc",
		"garbage":  "Bearer not-a-jwt",
		"no token": "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set(echo.HeaderAuthorization, header)
			}
			assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
		})
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	e := echo.New()
	e.GET("/x", ok, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ctxRole, "CUSTOMER")
			return next(c)
		}
	}, RequireRole(utils.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
		TTL: 10 * time.Minute, KeyStrategy: "ip_route", Prefix: "rl",
	}
	e := echo.New()
	e.POST("/login", ok, NewTokenBucket(cfg, rdb, zap.NewNop()))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(e, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	retry, err := strconv.Atoi(last.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
}

func TestTokenBucket_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	e := echo.New()
	e.GET("/x", ok, NewTokenBucket(cfg, rdb, zap.NewNop()))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestTokenBucket_DisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/x", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil))
	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/generate-routine", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/admin/generate-routine")
	c.Set(ctxAdminID, uint64(3))

	assert.Equal(t, "rl:admin:3:route:POST /api/admin/generate-routine",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "admin_route"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/missing/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Scan not found")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/missing/4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/missing/:id", fields["route"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}
