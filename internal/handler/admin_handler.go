package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/middleware"
	"github.com/yenja7/onboarding-api/internal/models"
	"github.com/yenja7/onboarding-api/internal/service"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/response"
)

// AdminHandler exposes the review dashboard and export endpoints.
type AdminHandler struct {
	review  *service.ReviewService
	exports *service.ExportService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(review *service.ReviewService, exports *service.ExportService) *AdminHandler {
	return &AdminHandler{review: review, exports: exports}
}

// Dashboard godoc
// @Summary Admin review dashboard
// @Description Lists all submissions newest first with owner info and counts
// @Tags Admin
// @Produce json
// @Param status query string false "Filter by status (pending|approved|declined)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var status *models.SubmissionStatus
	if raw := c.Query("status"); raw != "" {
		value := models.SubmissionStatus(raw)
		status = &value
	}

	resp, cached, err := h.review.Dashboard(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, resp, nil, middleware.ExtractMeta(c))
}

// UpdateStatus godoc
// @Summary Approve or decline a submission
// @Description Idempotent; repeating a decision or reversing it is allowed
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.StatusUpdateRequest true "New status"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id}/status [patch]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	if err := h.review.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EnqueueExport godoc
// @Summary Enqueue a submissions export
// @Description Starts an asynchronous CSV or PDF export job
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export options"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/exports [post]
func (h *AdminHandler) EnqueueExport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	job, err := h.exports.Enqueue(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.ExportJobResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}, nil)
}

// ExportStatus godoc
// @Summary Poll an export job
// @Tags Admin
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/exports/{id} [get]
func (h *AdminHandler) ExportStatus(c *gin.Context) {
	status, err := h.exports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// DownloadExport godoc
// @Summary Download a finished export
// @Description Serves the export file referenced by a signed token
// @Tags Admin
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/exports/download/{token} [get]
func (h *AdminHandler) DownloadExport(c *gin.Context) {
	file, name, err := h.exports.OpenDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	path := file.Name()
	file.Close() //nolint:errcheck

	c.FileAttachment(path, name)
}
