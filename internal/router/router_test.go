package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/config"
	"github.com/glowscan/skincare-admin/internal/handler"
	"github.com/glowscan/skincare-admin/internal/llm"
	"github.com/glowscan/skincare-admin/internal/metrics"
	"github.com/glowscan/skincare-admin/internal/middleware"
	"github.com/glowscan/skincare-admin/internal/model"
	"github.com/glowscan/skincare-admin/internal/repository"
	"github.com/glowscan/skincare-admin/internal/utils"
)

const testSecret = "router-test-secret"

type noAdmins struct{}

func (noAdmins) GetByEmail(context.Context, string) (model.Admin, error) {
	return model.Admin{}, repository.ErrAdminNotFound
}
func (noAdmins) GetByID(_ context.Context, id uint64) (model.Admin, error) {
	return model.Admin{ID: id, Name: "Dr. Test", Email: "dr@test.io"}, nil
}

type noTokens struct{}

func (noTokens) StoreRefresh(context.Context, uint64, string, time.Time) error { return nil }
func (noTokens) ValidateRefresh(context.Context, string) (uint64, error) {
	return 0, repository.ErrInvalidRefresh
}
func (noTokens) RevokeByHash(context.Context, string) error { return repository.ErrInvalidRefresh }

type zeroStats struct{}

func (zeroStats) CountAll(context.Context) (int64, error) { return 0, nil }
func (zeroStats) CountPending(context.Context) (int64, error) { return 0, nil }
func (zeroStats) CountBetween(context.Context, time.Time, time.Time) (int64, error) { return 0, nil }
func (zeroStats) CountByIssue(context.Context) ([]repository.NameCount, error) { return nil, nil }
func (zeroStats) CountBySkinType(context.Context) ([]repository.NameCount, error) {
	return nil, nil
}

type emptyScans struct{}

func (emptyScans) ListAll(context.Context) ([]model.SkinAnalysis, error) { return nil, nil }
func (emptyScans) GetByID(context.Context, uint64) (model.SkinAnalysis, error) {
	return model.SkinAnalysis{}, repository.ErrScanNotFound
}
func (emptyScans) Delete(context.Context, uint64) (int64, error) {
	return 0, repository.ErrScanNotFound
}
func (emptyScans) Review(context.Context, uint64, []model.Recommendation) error {
	return repository.ErrScanNotFound
}
func (emptyScans) ListByAnalysis(context.Context, uint64) ([]model.Recommendation, error) {
	return nil, nil
}

type fixedRoutine struct{}

func (fixedRoutine) Generate(context.Context, string) (llm.Routine, error) {
	return llm.Routine{RoutineSummary: "ok"}, nil
}

func newServer(t *testing.T, lim Limiters) *echo.Echo {
	t.Helper()
	dummy, err := utils.NewDummyHash(4)
	require.NoError(t, err)

	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	e := echo.New()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)
	RegisterMiddleware(e, "/api", logger, m)
	RegisterRoutes(e, nil, handler.NewUploadsHandler(t.TempDir()), reg)
	RegisterAdmin(e, "/api", AdminHandlers{
		Auth:      handler.NewAuthHandler(handler.AuthSettings{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1}, noAdmins{}, noTokens{}, dummy, logger),
		Dashboard: handler.NewDashboardHandler(zeroStats{}, zeroStats{}, nil, logger),
		Scans:     handler.NewScanHandler(emptyScans{}, emptyScans{}, nil, m, "Gemini-1.5-Flash", logger),
		Routine:   handler.NewRoutineHandler(fixedRoutine{}, logger),
	}, testSecret, lim)
	return e
}

func call(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newServer(t, Limiters{})

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/me"},
		{http.MethodGet, "/api/admin/dashboard-data"},
		{http.MethodGet, "/api/admin/all-scans"},
		{http.MethodGet, "/api/admin/scans/1"},
		{http.MethodDelete, "/api/admin/delete-scan/1"},
		{http.MethodPost, "/api/admin/verify-scan-batch/1"},
		{http.MethodPost, "/api/admin/flag-scan/1"},
		{http.MethodPost, "/api/admin/generate-routine"},
	} {
		rec := call(e, r.method, r.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
		assert.JSONEq(t, `{"status":"error","message":"Missing bearer token"}`, rec.Body.String(), r.path)
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	}

	rec := call(e, http.MethodGet, "/api/admin/all-scans", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesWithToken(t *testing.T) {
	e := newServer(t, Limiters{})
	tok, err := utils.NewAccessToken(testSecret, 7, "Dr. Test", 5)
	require.NoError(t, err)

	rec := call(e, http.MethodGet, "/api/admin/all-scans", "", tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","scans":[]}`, rec.Body.String())

	rec = call(e, http.MethodGet, "/api/admin/me", "", tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodPost, "/api/admin/generate-routine", `{"issue":"dry skin"}`, tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodGet, "/api/admin/dashboard-data", "", tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicRoutes(t *testing.T) {
	e := newServer(t, Limiters{})

	rec := call(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodPost, "/api/admin/logout", `{"refresh_token":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)

	rec = call(e, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skinadmin_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	e := newServer(t, Limiters{})

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/login", nil)
	req.Header.Set(echo.HeaderOrigin, "https://admin.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodDelete)
}

func TestLoginIsRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
	e := newServer(t, Limiters{Auth: middleware.NewTokenBucket(cfg, rdb, zap.NewNop())})

	body := `{"username":"nobody@test.io","password":"wrong"}`
	for i := 0; i < 2; i++ {
		rec := call(e, http.MethodPost, "/api/admin/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := call(e, http.MethodPost, "/api/admin/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Too many requests"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// logout shares the group but not the limiter
	rec = call(e, http.MethodPost, "/api/admin/logout", `{"refresh_token":"x"}`, "")
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
}
