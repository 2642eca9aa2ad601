package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/middleware"
	"github.com/glowscan/skincare-admin/internal/model"
	"github.com/glowscan/skincare-admin/internal/queue"
	"github.com/glowscan/skincare-admin/internal/repository"
	"github.com/glowscan/skincare-admin/internal/service"
)

// ScanStore is the scan persistence used by ScanHandler.
type ScanStore interface {
	ListAll(ctx context.Context) ([]model.SkinAnalysis, error)
	GetByID(ctx context.Context, id uint64) (model.SkinAnalysis, error)
	Delete(ctx context.Context, id uint64) (int64, error)
	Review(ctx context.Context, id uint64, recs []model.Recommendation) error
}

// RecommendationReader lists the recommendations stored for a scan.
type RecommendationReader interface {
	ListByAnalysis(ctx context.Context, analysisID uint64) ([]model.Recommendation, error)
}

// ReviewRecorder counts committed reviews; *metrics.Metrics implements it.
type ReviewRecorder interface {
	ScanReviewed(status string)
}

// ScanHandler serves scan listing, detail, deletion and review.
type ScanHandler struct {
	scans        ScanStore
	recs         RecommendationReader
	audit        service.AuditPublisher
	reviews      ReviewRecorder
	modelVersion string
	logger       *zap.Logger
}

// NewScanHandler wires the handler. audit and reviews may be nil.
func NewScanHandler(scans ScanStore, recs RecommendationReader, audit service.AuditPublisher, reviews ReviewRecorder, modelVersion string, logger *zap.Logger) *ScanHandler {
	if audit == nil {
		audit = service.NoopPublisher{}
	}
	return &ScanHandler{
		scans:        scans,
		recs:         recs,
		audit:        audit,
		reviews:      reviews,
		modelVersion: modelVersion,
		logger:       logger.Named("scans"),
	}
}

type scanDTO struct {
	AnalysisID      uint64   `json:"analysis_id"`
	UserID          uint64   `json:"user_id"`
	DetectedIssue   *string  `json:"detected_issue"`
	ScanType        *string  `json:"scan_type"`
	ConfidenceScore *float64 `json:"confidence_score"`
	IsReviewed      bool     `json:"is_reviewed"`
	ImagePath       string   `json:"image_path"`
	AnalysisDate    string   `json:"analysis_date"`
}

func toScanDTO(s model.SkinAnalysis) scanDTO {
	return scanDTO{
		AnalysisID:      s.ID,
		UserID:          s.UserID,
		DetectedIssue:   s.DetectedIssue,
		ScanType:        s.ScanType,
		ConfidenceScore: s.ConfidenceScore,
		IsReviewed:      s.IsReviewed,
		ImagePath:       s.ImagePath,
		AnalysisDate:    s.AnalysisDate.UTC().Format(time.RFC3339),
	}
}

type recommendationDTO struct {
	RecID        uint64 `json:"rec_id"`
	AnalysisID   uint64 `json:"analysis_id"`
	Type         string `json:"type"`
	ModelVersion string `json:"model_version"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	AdminStatus  string `json:"admin_status"`
	CreatedAt    string `json:"created_at"`
}

func toRecommendationDTO(r model.Recommendation) recommendationDTO {
	return recommendationDTO{
		RecID:        r.ID,
		AnalysisID:   r.AnalysisID,
		Type:         string(r.Type),
		ModelVersion: r.ModelVersion,
		Title:        r.Title,
		Description:  r.Description,
		Link:         r.Link,
		AdminStatus:  string(r.AdminStatus),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List handles GET /admin/all-scans. Scans come newest first.
func (h *ScanHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	scans, err := h.scans.ListAll(ctx)
	if err != nil {
		logError(c, h.logger, "list scans failed", err)
		return fail(c, http.StatusInternalServerError, "Failed to load scans")
	}
	out := make([]scanDTO, 0, len(scans))
	for _, s := range scans {
		out = append(out, toScanDTO(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "scans": out})
}

// Get handles GET /admin/scans/:id.
func (h *ScanHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid scan id")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	scan, err := h.scans.GetByID(ctx, id)
	if errors.Is(err, repository.ErrScanNotFound) {
		return fail(c, http.StatusNotFound, "Scan not found")
	}
	if err != nil {
		logError(c, h.logger, "get scan failed", err, zap.Uint64("analysis_id", id))
		return fail(c, http.StatusInternalServerError, "Failed to load scan")
	}
	recs, err := h.recs.ListByAnalysis(ctx, id)
	if err != nil {
		logError(c, h.logger, "list recommendations failed", err, zap.Uint64("analysis_id", id))
		return fail(c, http.StatusInternalServerError, "Failed to load scan")
	}

	out := make([]recommendationDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecommendationDTO(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "scan": toScanDTO(scan), "recommendations": out})
}

// Delete handles DELETE /admin/delete-scan/:id. The scan and its
// recommendations go in one transaction.
func (h *ScanHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid scan id")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	removed, err := h.scans.Delete(ctx, id)
	if errors.Is(err, repository.ErrScanNotFound) {
		return fail(c, http.StatusNotFound, "Scan not found")
	}
	if err != nil {
		logError(c, h.logger, "delete scan failed", err, zap.Uint64("analysis_id", id))
		return fail(c, http.StatusInternalServerError, "Failed to delete scan")
	}

	h.publish(c, queue.ActionDeleted, id, removed, "")
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "Deleted"})
}

// publish sends an audit event after a commit. Failures are only logged.
func (h *ScanHandler) publish(c echo.Context, action string, analysisID uint64, recs int64, reason string) {
	adminID, _ := middleware.AdminID(c)
	ev := service.NewAuditEvent(action, analysisID, adminID, recs, reason)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
	defer cancel()
	if err := h.audit.Publish(ctx, ev); err != nil {
		h.logger.Warn("audit event not published",
			zap.String("action", action),
			zap.Uint64("analysis_id", analysisID),
			zap.Error(err))
	}
}
