package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/model"
	"github.com/glowscan/skincare-admin/internal/queue"
	"github.com/glowscan/skincare-admin/internal/repository"
)

const (
	maxTitleLen = 255
	maxLinkLen  = 255

	defaultTitle = "Expert Advice"
	flaggedTitle = "Flagged as Incorrect"
)

// verifyItem keeps Type, Title and Link as pointers so an omitted field
// (default applied) can be told apart from a submitted empty string (stored).
type verifyItem struct {
	Type        *string `json:"type"`
	Title       *string `json:"title"`
	Description string  `json:"description"`
	Link        *string `json:"link"`
}

type verifyReq struct {
	Recommendations []verifyItem `json:"recommendations"`
}

type flagReq struct {
	Reason string `json:"reason"`
}

// buildVerified validates items and applies defaults to omitted fields.
// Submitted strings are stored unchanged. The error message is safe to
// return to the client.
func (h *ScanHandler) buildVerified(items []verifyItem) ([]model.Recommendation, error) {
	recs := make([]model.Recommendation, 0, len(items))
	for i, it := range items {
		typ := model.RecommendationRemedy
		if it.Type != nil {
			parsed, err := model.ParseRecommendationType(strings.TrimSpace(*it.Type))
			if err != nil || strings.TrimSpace(*it.Type) == "" {
				return nil, fmt.Errorf("invalid recommendation type at index %d: must be Remedy or Product", i)
			}
			typ = parsed
		}
		title := defaultTitle
		if it.Title != nil {
			title = *it.Title
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return nil, fmt.Errorf("recommendation title at index %d exceeds %d characters", i, maxTitleLen)
		}
		link := ""
		if it.Link != nil {
			link = *it.Link
		}
		if utf8.RuneCountInString(link) > maxLinkLen {
			return nil, fmt.Errorf("recommendation link at index %d exceeds %d characters", i, maxLinkLen)
		}
		recs = append(recs, model.Recommendation{
			Type:         typ,
			ModelVersion: h.modelVersion,
			Title:        title,
			Description:  it.Description,
			Link:         link,
			AdminStatus:  model.AdminStatusVerified,
		})
	}
	return recs, nil
}

// VerifyBatch handles POST /admin/verify-scan-batch/:id. It marks the scan
// reviewed and stores every submitted recommendation as Verified, all or
// nothing.
func (h *ScanHandler) VerifyBatch(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid scan id")
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	recs, err := h.buildVerified(req.Recommendations)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	return h.review(c, id, recs, queue.ActionVerified, "")
}

// Flag handles POST /admin/flag-scan/:id: the scan is marked reviewed with a
// single Flagged recommendation carrying the optional reason.
func (h *ScanHandler) Flag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid scan id")
	}
	var req flagReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	reason := strings.TrimSpace(req.Reason)
	recs := []model.Recommendation{{
		Type:         model.RecommendationRemedy,
		ModelVersion: h.modelVersion,
		Title:        flaggedTitle,
		Description:  reason,
		AdminStatus:  model.AdminStatusFlagged,
	}}

	return h.review(c, id, recs, queue.ActionFlagged, reason)
}

func (h *ScanHandler) review(c echo.Context, id uint64, recs []model.Recommendation, action, reason string) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	err := h.scans.Review(ctx, id, recs)
	if errors.Is(err, repository.ErrScanNotFound) {
		return fail(c, http.StatusNotFound, "Scan not found")
	}
	if err != nil {
		logError(c, h.logger, "review transaction failed", err,
			zap.Uint64("analysis_id", id),
			zap.String("action", action),
			zap.Int("recommendations", len(recs)))
		return fail(c, http.StatusInternalServerError, "Failed to save review")
	}

	status := string(model.AdminStatusVerified)
	if action == queue.ActionFlagged {
		status = string(model.AdminStatusFlagged)
	}
	if h.reviews != nil {
		h.reviews.ScanReviewed(status)
	}
	h.publish(c, action, id, int64(len(recs)), reason)

	return c.JSON(http.StatusOK, echo.Map{"status": "success", "analysis_id": id, "saved": len(recs)})
}
