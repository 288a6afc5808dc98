package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
	"github.com/noah-isme/agreements-api/pkg/response"
)

type supervisorService interface {
	List(ctx context.Context, filter models.SupervisorFilter) ([]dto.SupervisorSummary, error)
	Get(ctx context.Context, id string) (*dto.SupervisorProfile, error)
	Create(ctx context.Context, req dto.SupervisorRequest) (*models.SupervisorDetail, error)
	Update(ctx context.Context, id string, req dto.SupervisorUpdateRequest) (*models.SupervisorDetail, error)
	Assign(ctx context.Context, supervisorID string, req dto.AssignAgreementRequest) (*models.AssignmentLink, error)
	Unassign(ctx context.Context, supervisorID, agreementID string) error
	AvailableAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error)
	Workload(ctx context.Context, supervisorID string) (*dto.Workload, error)
	SendAlert(ctx context.Context, supervisorID string, req dto.AlertRequest) (*models.Notification, error)
}

type evaluationService interface {
	Create(ctx context.Context, supervisorID, evaluatorID string, req dto.EvaluationRequest) (*models.EvaluationView, error)
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.EvaluationView, error)
}

// SupervisorHandler exposes supervisor, assignment and evaluation endpoints.
type SupervisorHandler struct {
	service     supervisorService
	evaluations evaluationService
}

// NewSupervisorHandler builds a SupervisorHandler.
func NewSupervisorHandler(svc supervisorService, evaluations evaluationService) *SupervisorHandler {
	return &SupervisorHandler{service: svc, evaluations: evaluations}
}

// List godoc
// @Summary List supervisors
// @Tags Supervisors
// @Produce json
// @Param status query string false "active, inactive or suspended"
// @Param search query string false "Name, code or specialty"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors [get]
func (h *SupervisorHandler) List(c *gin.Context) {
	filter := models.SupervisorFilter{Search: strings.TrimSpace(c.Query("search"))}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		s := models.SupervisorStatus(status)
		switch s {
		case models.SupervisorActive, models.SupervisorInactive, models.SupervisorSuspended:
			filter.Status = &s
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status "+status))
			return
		}
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Supervisor profile
// @Tags Supervisors
// @Produce json
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id} [get]
func (h *SupervisorHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Create godoc
// @Summary Create supervisor
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param payload body dto.SupervisorRequest true "Supervisor payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors [post]
func (h *SupervisorHandler) Create(c *gin.Context) {
	var req dto.SupervisorRequest
	if !bindJSON(c, &req, "invalid supervisor payload") {
		return
	}
	supervisor, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, supervisor)
}

// Update godoc
// @Summary Update supervisor
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param id path string true "Supervisor ID"
// @Param payload body dto.SupervisorUpdateRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id} [put]
func (h *SupervisorHandler) Update(c *gin.Context) {
	var req dto.SupervisorUpdateRequest
	if !bindJSON(c, &req, "invalid supervisor payload") {
		return
	}
	supervisor, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisor, nil)
}

// Workload godoc
// @Summary Supervisor workload
// @Tags Supervisors
// @Produce json
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id}/workload [get]
func (h *SupervisorHandler) Workload(c *gin.Context) {
	workload, err := h.service.Workload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workload, nil)
}

// AvailableAgreements godoc
// @Summary Agreements not yet assigned to the supervisor
// @Tags Supervisors
// @Produce json
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id}/available-agreements [get]
func (h *SupervisorHandler) AvailableAgreements(c *gin.Context) {
	items, err := h.service.AvailableAgreements(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Assign godoc
// @Summary Assign agreement to supervisor
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param id path string true "Supervisor ID"
// @Param payload body dto.AssignAgreementRequest true "Agreement to assign"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id}/agreements [post]
func (h *SupervisorHandler) Assign(c *gin.Context) {
	var req dto.AssignAgreementRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	link, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Unassign godoc
// @Summary Remove agreement from supervisor
// @Tags Supervisors
// @Param id path string true "Supervisor ID"
// @Param agreementId path string true "Agreement ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id}/agreements/{agreementId} [delete]
func (h *SupervisorHandler) Unassign(c *gin.Context) {
	if err := h.service.Unassign(c.Request.Context(), c.Param("id"), c.Param("agreementId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SendAlert godoc
// @Summary Send an alert to a supervisor
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param id path string true "Supervisor ID"
// @Param payload body dto.AlertRequest true "Alert message"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id}/alerts [post]
func (h *SupervisorHandler) SendAlert(c *gin.Context) {
	var req dto.AlertRequest
	if !bindJSON(c, &req, "invalid alert payload") {
		return
	}
	notification, err := h.service.SendAlert(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// CreateEvaluation godoc
// @Summary Evaluate a supervisor
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Supervisor ID"
// @Param payload body dto.EvaluationRequest true "Ratings from 1 to 10"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id}/evaluations [post]
func (h *SupervisorHandler) CreateEvaluation(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.EvaluationRequest
	if !bindJSON(c, &req, "invalid evaluation payload") {
		return
	}
	evaluation, err := h.evaluations.Create(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evaluation)
}

// ListEvaluations godoc
// @Summary Supervisor evaluations
// @Tags Evaluations
// @Produce json
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supervisors/{id}/evaluations [get]
func (h *SupervisorHandler) ListEvaluations(c *gin.Context) {
	items, err := h.evaluations.ListBySupervisor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
