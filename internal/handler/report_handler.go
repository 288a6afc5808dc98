package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	"github.com/noah-isme/agreements-api/pkg/response"
)

type reportService interface {
	ListByAgreement(ctx context.Context, agreementID string) ([]models.Report, error)
	ListBySupervisorUser(ctx context.Context, userID string) ([]models.Report, error)
	Get(ctx context.Context, id string) (*models.Report, error)
	Create(ctx context.Context, agreementID string, actor *models.JWTClaims, req dto.ReportRequest) (*models.Report, error)
	Review(ctx context.Context, id string, req dto.ReviewReportRequest) (*models.Report, error)
	Delete(ctx context.Context, id string) error
}

// ReportHandler exposes supervision report endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler builds a ReportHandler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// ListByAgreement godoc
// @Summary List reports of an agreement
// @Tags Reports
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id}/reports [get]
func (h *ReportHandler) ListByAgreement(c *gin.Context) {
	reports, err := h.service.ListByAgreement(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Mine godoc
// @Summary Reports submitted by the caller
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/mine [get]
func (h *ReportHandler) Mine(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	reports, err := h.service.ListBySupervisorUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Submit a report for an agreement
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Agreement ID"
// @Param payload body dto.ReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id}/reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	report, err := h.service.Create(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Review godoc
// @Summary Review a report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ReviewReportRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/{id} [patch]
func (h *ReportHandler) Review(c *gin.Context) {
	var req dto.ReviewReportRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	report, err := h.service.Review(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete report
// @Tags Reports
// @Param id path string true "Report ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
