package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	"github.com/noah-isme/agreements-api/pkg/response"
)

type activityService interface {
	ListByAgreement(ctx context.Context, agreementID string) ([]models.Activity, error)
	Create(ctx context.Context, agreementID string, req dto.ActivityRequest) (*models.Activity, error)
	Update(ctx context.Context, id string, req dto.ActivityUpdateRequest) (*models.Activity, error)
	Complete(ctx context.Context, id string) (*models.Activity, error)
	Delete(ctx context.Context, id string) error
}

// ActivityHandler exposes agreement activity endpoints.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler builds an ActivityHandler.
func NewActivityHandler(svc activityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// ListByAgreement godoc
// @Summary List activities of an agreement
// @Tags Activities
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id}/activities [get]
func (h *ActivityHandler) ListByAgreement(c *gin.Context) {
	items, err := h.service.ListByAgreement(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Agreement ID"
// @Param payload body dto.ActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id}/activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req dto.ActivityRequest
	if !bindJSON(c, &req, "invalid activity payload") {
		return
	}
	activity, err := h.service.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Update activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body dto.ActivityUpdateRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id} [patch]
func (h *ActivityHandler) Update(c *gin.Context) {
	var req dto.ActivityUpdateRequest
	if !bindJSON(c, &req, "invalid activity payload") {
		return
	}
	activity, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Complete godoc
// @Summary Mark activity completed
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id}/complete [post]
func (h *ActivityHandler) Complete(c *gin.Context) {
	activity, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Delete godoc
// @Summary Delete activity
// @Tags Activities
// @Param id path string true "Activity ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
