package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/llm"
	"github.com/glowscan/skincare-admin/internal/service"
)

// RoutineGenerator is implemented by service.RoutineService.
type RoutineGenerator interface {
	Generate(ctx context.Context, issue string) (llm.Routine, error)
}

// RoutineHandler drafts routines with the remote generation service.
type RoutineHandler struct {
	gen    RoutineGenerator
	logger *zap.Logger
}

func NewRoutineHandler(gen RoutineGenerator, logger *zap.Logger) *RoutineHandler {
	return &RoutineHandler{gen: gen, logger: logger.Named("routine")}
}

type routineReq struct {
	Issue string `json:"issue"`
}

// Generate handles POST /admin/generate-routine.
func (h *RoutineHandler) Generate(c echo.Context) error {
	var req routineReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Issue) == "" {
		return fail(c, http.StatusBadRequest, "Skin issue description is missing")
	}

	routine, err := h.gen.Generate(c.Request().Context(), req.Issue)
	if err != nil {
		if errors.Is(err, service.ErrEmptyIssue) {
			return fail(c, http.StatusBadRequest, "Skin issue description is missing")
		}
		var llmErr *llm.Error
		if errors.As(err, &llmErr) {
			logError(c, h.logger, "routine generation failed", err, zap.String("kind", string(llmErr.Kind)))
			return fail(c, http.StatusInternalServerError, llmErr.Message)
		}
		logError(c, h.logger, "routine generation failed", err)
		return fail(c, http.StatusInternalServerError, "Routine generation failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "success", "routine": routine})
}
