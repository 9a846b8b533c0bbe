package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// SectionService defines the section operations used by the handler.
type SectionService interface {
	Create(ctx context.Context, req service.CreateSectionRequest) (*models.Section, error)
	Get(ctx context.Context, id int64) (*models.Section, error)
	ListByOffering(ctx context.Context, offeringID int64) ([]models.Section, error)
	FindByCode(ctx context.Context, code string) (*models.Section, error)
	UpdateStatus(ctx context.Context, id int64, req service.UpdateSectionStatusRequest) (*models.Section, error)
}

// SectionHandler exposes section endpoints.
type SectionHandler struct {
	service SectionService
}

// NewSectionHandler constructs a section handler.
func NewSectionHandler(svc SectionService) *SectionHandler {
	return &SectionHandler{service: svc}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// Create godoc
// @Summary Create section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Get godoc
// @Summary Get section detail
// @Tags Sections
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	section, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section)
}

// ListByOffering godoc
// @Summary List sections of a subject offering
// @Tags Sections
// @Produce json
// @Param id path int true "Subject offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/sections [get]
func (h *SectionHandler) ListByOffering(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sections, err := h.service.ListByOffering(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if sections == nil {
		sections = []models.Section{}
	}
	response.JSON(c, http.StatusOK, sections, map[string]interface{}{"count": len(sections)})
}

// FindByCode godoc
// @Summary Resolve a section by enrollment code
// @Tags Sections
// @Produce json
// @Param code path string true "Enrollment code"
// @Success 200 {object} response.Envelope
// @Router /sections/code/{code} [get]
func (h *SectionHandler) FindByCode(c *gin.Context) {
	section, err := h.service.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section)
}

// UpdateStatus godoc
// @Summary Change section status
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path int true "Section ID"
// @Param payload body service.UpdateSectionStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/status [patch]
func (h *SectionHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateSectionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.service.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section)
}
