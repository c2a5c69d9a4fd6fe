package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhutchins/course-planner-api/internal/dto"
	"github.com/mhutchins/course-planner-api/internal/service"
	appErrors "github.com/mhutchins/course-planner-api/pkg/errors"
	"github.com/mhutchins/course-planner-api/pkg/response"
)

type planner interface {
	Plan(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error)
}

type planExporter interface {
	Render(plan *dto.PlanResponse, format string) (*service.ExportResult, error)
}

// PlanHandler exposes the schedule planning endpoints.
type PlanHandler struct {
	planner  planner
	exporter planExporter
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(planner *service.PlannerService, exporter *service.ExportService) *PlanHandler {
	return &PlanHandler{planner: planner, exporter: exporter}
}

// Generate godoc
// @Summary Generate ranked schedule options
// @Description Enumerates every conflict-free combination of sections for the requested courses and ranks them by the composite score (lower is better).
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.PlanRequest true "Plan request payload"
// @Success 200 {object} response.Envelope
// @Router /plans [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}
	result, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Export godoc
// @Summary Export a generated plan as CSV or PDF
// @Tags Planner
// @Accept json
// @Produce octet-stream
// @Param payload body dto.ExportPlanRequest true "Export plan payload"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /plans/export [post]
func (h *PlanHandler) Export(c *gin.Context) {
	var req dto.ExportPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	plan, err := h.planner.Plan(c.Request.Context(), req.Plan)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.Render(plan, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
