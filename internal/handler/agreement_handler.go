package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
	"github.com/noah-isme/agreements-api/pkg/response"
)

const maxMultipartMemory = 8 << 20

type agreementService interface {
	List(ctx context.Context, filter models.AgreementFilter) (*dto.AgreementList, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.AgreementDetail, error)
	Create(ctx context.Context, req dto.AgreementRequest) (*models.AgreementView, error)
	Update(ctx context.Context, id string, req dto.AgreementRequest) (*models.AgreementView, error)
	Delete(ctx context.Context, id string) error
	Expiring(ctx context.Context, days, limit int) ([]models.AgreementView, error)
	UploadFile(ctx context.Context, id string, upload dto.FileUpload) (*models.AgreementView, error)
	DownloadURL(ctx context.Context, id string) (*dto.SignedURL, error)
	Download(ctx context.Context, id, token string) (*dto.FileDownload, error)
	Export(ctx context.Context, format string, filter models.AgreementFilter) (*dto.ExportFile, error)
}

type statusReconciler interface {
	Run(ctx context.Context) (*dto.ReconcileResult, error)
}

// AgreementHandler exposes agreement endpoints.
type AgreementHandler struct {
	service    agreementService
	reconciler statusReconciler
}

// NewAgreementHandler builds an AgreementHandler.
func NewAgreementHandler(svc agreementService, reconciler statusReconciler) *AgreementHandler {
	return &AgreementHandler{service: svc, reconciler: reconciler}
}

func agreementFilterFromQuery(c *gin.Context) (models.AgreementFilter, error) {
	page, limit := pageParams(c)
	filter := models.AgreementFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      page,
		PageSize:  limit,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		s := models.AgreementStatus(status)
		if !s.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown status "+status)
		}
		filter.Status = &s
	}
	if kind := strings.TrimSpace(c.Query("type")); kind != "" {
		t := models.AgreementType(kind)
		if !t.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown type "+kind)
		}
		filter.Type = &t
	}
	var err error
	if filter.StartFrom, err = parseQueryDate(c, "from"); err != nil {
		return filter, err
	}
	if filter.StartTo, err = parseQueryDate(c, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

// List godoc
// @Summary List agreements
// @Tags Agreements
// @Produce json
// @Param status query string false "Stored status"
// @Param type query string false "framework, internship or welfare"
// @Param from query string false "Start date lower bound (YYYY-MM-DD)"
// @Param to query string false "Start date upper bound (YYYY-MM-DD)"
// @Param search query string false "Counterparty or supervisor name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements [get]
func (h *AgreementHandler) List(c *gin.Context) {
	filter, err := agreementFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, pagination)
}

// Get godoc
// @Summary Get agreement
// @Tags Agreements
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id} [get]
func (h *AgreementHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create agreement
// @Tags Agreements
// @Accept json
// @Produce json
// @Param payload body dto.AgreementRequest true "Agreement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements [post]
func (h *AgreementHandler) Create(c *gin.Context) {
	var req dto.AgreementRequest
	if !bindJSON(c, &req, "invalid agreement payload") {
		return
	}
	agreement, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, agreement)
}

// Update godoc
// @Summary Update agreement
// @Tags Agreements
// @Accept json
// @Produce json
// @Param id path string true "Agreement ID"
// @Param payload body dto.AgreementRequest true "Agreement payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id} [put]
func (h *AgreementHandler) Update(c *gin.Context) {
	var req dto.AgreementRequest
	if !bindJSON(c, &req, "invalid agreement payload") {
		return
	}
	agreement, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agreement, nil)
}

// Delete godoc
// @Summary Delete agreement
// @Tags Agreements
// @Param id path string true "Agreement ID"
// @Success 204 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id} [delete]
func (h *AgreementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Expiring godoc
// @Summary Agreements about to expire
// @Tags Agreements
// @Produce json
// @Param days query int false "Window in days"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/expiring [get]
func (h *AgreementHandler) Expiring(c *gin.Context) {
	items, err := h.service.Expiring(c.Request.Context(), parseQueryInt(c, "days", 0), parseQueryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Export godoc
// @Summary Export agreement register
// @Tags Agreements
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /agreements/export [get]
func (h *AgreementHandler) Export(c *gin.Context) {
	filter, err := agreementFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Query("format"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Reconcile godoc
// @Summary Reconcile stored statuses with the calendar
// @Tags Agreements
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/reconcile [post]
func (h *AgreementHandler) Reconcile(c *gin.Context) {
	if h.reconciler == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "reconciler unavailable"))
		return
	}
	result, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UploadFile godoc
// @Summary Upload agreement document
// @Tags Agreements
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Agreement ID"
// @Param file formData file true "Document"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id}/file [post]
func (h *AgreementHandler) UploadFile(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close()

	agreement, err := h.service.UploadFile(c.Request.Context(), c.Param("id"), dto.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agreement, nil)
}

// FileURL godoc
// @Summary Signed download link
// @Tags Agreements
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{id}/file/url [get]
func (h *AgreementHandler) FileURL(c *gin.Context) {
	link, err := h.service.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download agreement document
// @Description The signed token authorizes the download, no bearer token is needed.
// @Tags Agreements
// @Produce octet-stream
// @Param id path string true "Agreement ID"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /agreements/{id}/file/download [get]
func (h *AgreementHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token required"))
		return
	}
	file, err := h.service.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Body.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Filename),
	})
}
