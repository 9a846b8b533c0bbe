package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/middleware/requestid"
	"github.com/noah-isme/lms-api/pkg/response"
)

// MaintenanceService defines the reconcile operations triggered over HTTP.
type MaintenanceService interface {
	Pending(ctx context.Context) ([]models.OrphanedOffering, error)
	Reconcile(ctx context.Context, progress func(models.OfferingResult)) (*models.ReconcileReport, error)
	BackfillCodes(ctx context.Context, progress func(models.SectionCodeResult)) (*models.CodeBackfillReport, error)
	LastReconcile(ctx context.Context) (*models.ReconcileReport, error)
}

// MaintenanceHandler exposes the data-repair jobs to administrators.
type MaintenanceHandler struct {
	service MaintenanceService
	logger  *zap.Logger
}

// NewMaintenanceHandler constructs a MaintenanceHandler.
func NewMaintenanceHandler(svc MaintenanceService, logger *zap.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceHandler{service: svc, logger: logger}
}

// Pending godoc
// @Summary List subject offerings with orphaned enrollments
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/reconcile/pending [get]
func (h *MaintenanceHandler) Pending(c *gin.Context) {
	offerings, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if offerings == nil {
		offerings = []models.OrphanedOffering{}
	}
	response.JSON(c, http.StatusOK, offerings, map[string]interface{}{"count": len(offerings)})
}

// Reconcile godoc
// @Summary Repair enrollments lacking a valid section
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/reconcile [post]
func (h *MaintenanceHandler) Reconcile(c *gin.Context) {
	userID, role := actorFields(c)
	h.logger.Info("reconcile triggered over http",
		zap.String("request_id", requestid.Value(c)),
		zap.String("actor", userID),
		zap.String("role", string(role)))
	report, err := h.service.Reconcile(c.Request.Context(), nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{
		"repaired": report.Repaired,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})
}

// BackfillCodes godoc
// @Summary Assign enrollment codes to sections that have none
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/backfill-codes [post]
func (h *MaintenanceHandler) BackfillCodes(c *gin.Context) {
	userID, role := actorFields(c)
	h.logger.Info("code backfill triggered over http",
		zap.String("request_id", requestid.Value(c)),
		zap.String("actor", userID),
		zap.String("role", string(role)))
	report, err := h.service.BackfillCodes(c.Request.Context(), nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// LastReconcile godoc
// @Summary Show the most recent reconcile report
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/reconcile/last [get]
func (h *MaintenanceHandler) LastReconcile(c *gin.Context) {
	report, err := h.service.LastReconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
