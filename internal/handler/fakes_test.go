package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/model"
	"github.com/glowscan/skincare-admin/internal/queue"
	"github.com/glowscan/skincare-admin/internal/repository"
)

// newEcho returns an Echo with the production error handler.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zap.NewNop())
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

type fakeAdmins struct {
	byEmail map[string]model.Admin
	err     error
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (model.Admin, error) {
	if f.err != nil {
		return model.Admin{}, f.err
	}
	a, ok := f.byEmail[email]
	if !ok {
		return model.Admin{}, repository.ErrAdminNotFound
	}
	return a, nil
}

func (f *fakeAdmins) GetByID(_ context.Context, id uint64) (model.Admin, error) {
	for _, a := range f.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Admin{}, repository.ErrAdminNotFound
}

type fakeTokens struct {
	mu      sync.Mutex
	active  map[string]uint64
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{active: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, adminID uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[hash] = adminID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.active[hash]
	if !ok || f.revoked[hash] {
		return 0, repository.ErrInvalidRefresh
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.active[hash]; !ok || f.revoked[hash] {
		return repository.ErrInvalidRefresh
	}
	f.revoked[hash] = true
	return nil
}

// fakeScans is an in-memory ScanStore/RecommendationReader that applies a
// review atomically, like the SQL transaction.
type fakeScans struct {
	mu        sync.Mutex
	scans     map[uint64]model.SkinAnalysis
	recs      map[uint64][]model.Recommendation
	nextRecID uint64
	reviewErr error
	listErr   error
}

func newFakeScans(scans ...model.SkinAnalysis) *fakeScans {
	f := &fakeScans{scans: map[uint64]model.SkinAnalysis{}, recs: map[uint64][]model.Recommendation{}}
	for _, s := range scans {
		f.scans[s.ID] = s
	}
	return f
}

func (f *fakeScans) ListAll(context.Context) ([]model.SkinAnalysis, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.SkinAnalysis, 0, len(f.scans))
	for _, s := range f.scans {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeScans) GetByID(_ context.Context, id uint64) (model.SkinAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scans[id]
	if !ok {
		return model.SkinAnalysis{}, repository.ErrScanNotFound
	}
	return s, nil
}

func (f *fakeScans) Delete(_ context.Context, id uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scans[id]; !ok {
		return 0, repository.ErrScanNotFound
	}
	n := int64(len(f.recs[id]))
	delete(f.scans, id)
	delete(f.recs, id)
	return n, nil
}

func (f *fakeScans) Review(_ context.Context, id uint64, recs []model.Recommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scans[id]
	if !ok {
		return repository.ErrScanNotFound
	}
	if f.reviewErr != nil {
		return f.reviewErr
	}
	s.IsReviewed = true
	f.scans[id] = s
	for _, r := range recs {
		f.nextRecID++
		r.ID = f.nextRecID
		r.AnalysisID = id
		r.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		f.recs[id] = append(f.recs[id], r)
	}
	return nil
}

func (f *fakeScans) ListByAnalysis(_ context.Context, id uint64) ([]model.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Recommendation{}, f.recs[id]...), nil
}

func (f *fakeScans) CountAll(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.scans)), nil
}

func (f *fakeScans) CountPending(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.scans {
		if !s.IsReviewed {
			n++
		}
	}
	return n, nil
}

func (f *fakeScans) CountBetween(_ context.Context, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.scans {
		if !s.AnalysisDate.Before(from) && s.AnalysisDate.Before(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeScans) CountByIssue(context.Context) ([]repository.NameCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int64{}
	for _, s := range f.scans {
		name := repository.UnknownIssue
		if s.DetectedIssue != nil && strings.TrimSpace(*s.DetectedIssue) != "" {
			name = *s.DetectedIssue
		}
		counts[name]++
	}
	out := make([]repository.NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, repository.NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ScanAuditEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ScanAuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type reviewCounter struct{ statuses []string }

func (r *reviewCounter) ScanReviewed(status string) { r.statuses = append(r.statuses, status) }

func strPtr(s string) *string { return &s }

func serveReq(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
