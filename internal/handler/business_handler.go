package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/service"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/response"
)

// BusinessHandler exposes the owner-facing business endpoints.
type BusinessHandler struct {
	business *service.BusinessService
}

// NewBusinessHandler creates a new handler.
func NewBusinessHandler(business *service.BusinessService) *BusinessHandler {
	return &BusinessHandler{business: business}
}

// ListMySubmissions godoc
// @Summary List my submissions
// @Tags Business
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /my/submissions [get]
func (h *BusinessHandler) ListMySubmissions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summaries, err := h.business.ListMySubmissions(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// MyBusiness godoc
// @Summary Get my primary business
// @Tags Business
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /my/business [get]
func (h *BusinessHandler) MyBusiness(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sub, err := h.business.MyBusiness(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// SubmitChangeRequest godoc
// @Summary Request changes to my business
// @Description Records a sparse diff of the editable fields for admin review
// @Tags Business
// @Accept json
// @Produce json
// @Param payload body dto.ChangeRequestPayload true "Proposed values"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /my/business/change-requests [post]
func (h *BusinessHandler) SubmitChangeRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload dto.ChangeRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid change request payload"))
		return
	}

	req, err := h.business.SubmitChangeRequest(c.Request.Context(), claims.UserID, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// ListChangeRequests godoc
// @Summary List my change requests
// @Tags Business
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /my/business/change-requests [get]
func (h *BusinessHandler) ListChangeRequests(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.business.MyChangeRequests(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
