package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/repository"
)

// UserStats are the user aggregates shown on the dashboard.
type UserStats interface {
	CountAll(ctx context.Context) (int64, error)
	CountBySkinType(ctx context.Context) ([]repository.NameCount, error)
}

// ScanStats are the scan aggregates shown on the dashboard.
type ScanStats interface {
	CountAll(ctx context.Context) (int64, error)
	CountPending(ctx context.Context) (int64, error)
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountByIssue(ctx context.Context) ([]repository.NameCount, error)
}

// DashboardHandler serves the aggregate statistics of the admin home page.
type DashboardHandler struct {
	users  UserStats
	scans  ScanStats
	now    func() time.Time
	logger *zap.Logger
}

// NewDashboardHandler uses now to decide what "today" is; pass time.Now in
// production.
func NewDashboardHandler(users UserStats, scans ScanStats, now func() time.Time, logger *zap.Logger) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{users: users, scans: scans, now: now, logger: logger.Named("dashboard")}
}

type dashboardStats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalScans     int64 `json:"total_scans"`
	PendingReviews int64 `json:"pending_reviews"`
	TodaysScans    int64 `json:"todays_scans"`
}

type skinTypeBar struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type skinIssueBar struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type dashboardCharts struct {
	SkinTypes  []skinTypeBar  `json:"skinTypes"`
	SkinIssues []skinIssueBar `json:"skinIssues"`
}

// localDay returns [midnight, next midnight) of t's calendar day in t's
// location.
func localDay(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// Get handles GET /admin/dashboard-data.
func (h *DashboardHandler) Get(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	var (
		stats dashboardStats
		err   error
	)
	if stats.TotalUsers, err = h.users.CountAll(ctx); err != nil {
		return h.failStats(c, "count users", err)
	}
	if stats.TotalScans, err = h.scans.CountAll(ctx); err != nil {
		return h.failStats(c, "count scans", err)
	}
	if stats.PendingReviews, err = h.scans.CountPending(ctx); err != nil {
		return h.failStats(c, "count pending", err)
	}
	from, to := localDay(h.now())
	if stats.TodaysScans, err = h.scans.CountBetween(ctx, from, to); err != nil {
		return h.failStats(c, "count today", err)
	}

	types, err := h.users.CountBySkinType(ctx)
	if err != nil {
		return h.failStats(c, "group skin types", err)
	}
	issues, err := h.scans.CountByIssue(ctx)
	if err != nil {
		return h.failStats(c, "group issues", err)
	}

	charts := dashboardCharts{
		SkinTypes:  make([]skinTypeBar, 0, len(types)),
		SkinIssues: make([]skinIssueBar, 0, len(issues)),
	}
	for _, t := range types {
		charts.SkinTypes = append(charts.SkinTypes, skinTypeBar{Name: t.Name, Value: t.Count})
	}
	for _, i := range issues {
		charts.SkinIssues = append(charts.SkinIssues, skinIssueBar{Name: i.Name, Count: i.Count})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "success", "stats": stats, "charts": charts})
}

func (h *DashboardHandler) failStats(c echo.Context, step string, err error) error {
	logError(c, h.logger, "dashboard query failed", err, zap.String("step", step))
	return fail(c, http.StatusInternalServerError, "Failed to load dashboard data")
}
