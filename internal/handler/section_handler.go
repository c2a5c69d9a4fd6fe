package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhutchins/course-planner-api/internal/models"
	"github.com/mhutchins/course-planner-api/internal/service"
	appErrors "github.com/mhutchins/course-planner-api/pkg/errors"
	"github.com/mhutchins/course-planner-api/pkg/response"
)

type sectionCatalog interface {
	SectionsForCourse(ctx context.Context, courseID string) ([]models.Section, error)
	SectionByID(ctx context.Context, sectionID string) (*models.Section, error)
	CourseExists(ctx context.Context, courseID string) (bool, error)
	ModalitiesForCourse(ctx context.Context, courseID string) ([]models.Modality, error)
}

// SectionHandler exposes read-only catalog endpoints.
type SectionHandler struct {
	catalog sectionCatalog
}

// NewSectionHandler constructs the handler.
func NewSectionHandler(catalog *service.CatalogService) *SectionHandler {
	return &SectionHandler{catalog: catalog}
}

// ListSections godoc
// @Summary List available sections for a course
// @Tags Catalog
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/sections [get]
func (h *SectionHandler) ListSections(c *gin.Context) {
	courseID := c.Param("courseId")
	exists, err := h.catalog.CourseExists(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !exists {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
		return
	}
	sections, err := h.catalog.SectionsForCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, map[string]interface{}{"count": len(sections)})
}

// ListModalities godoc
// @Summary List modalities with open seats for a course
// @Tags Catalog
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/modalities [get]
func (h *SectionHandler) ListModalities(c *gin.Context) {
	modalities, err := h.catalog.ModalitiesForCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, modalities)
}

// GetSection godoc
// @Summary Get a single section by id
// @Tags Catalog
// @Produce json
// @Param sectionId path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{sectionId} [get]
func (h *SectionHandler) GetSection(c *gin.Context) {
	section, err := h.catalog.SectionByID(c.Request.Context(), c.Param("sectionId"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "section not found"))
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}
