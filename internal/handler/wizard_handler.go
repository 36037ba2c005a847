package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/service"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/response"
)

// maxUploadBytes bounds one multipart image part read into memory.
const maxUploadBytes = 10 << 20

// WizardHandler exposes the onboarding wizard endpoints. Every route operates
// on the authenticated owner's draft; the owner ID always comes from the
// access token, never from the payload.
type WizardHandler struct {
	wizard    *service.WizardService
	address   *service.AddressService
	assembler *service.AssemblerService
}

// NewWizardHandler creates a new handler.
func NewWizardHandler(wizard *service.WizardService, address *service.AddressService, assembler *service.AssemblerService) *WizardHandler {
	return &WizardHandler{wizard: wizard, address: address, assembler: assembler}
}

// Start godoc
// @Summary Start a new onboarding draft
// @Description Creates a fresh draft, replacing any existing one
// @Tags Wizard
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /wizard/start [post]
func (h *WizardHandler) Start(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.wizard.Start(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// Get godoc
// @Summary Get the current draft
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /wizard [get]
func (h *WizardHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.wizard.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SubmitCategory godoc
// @Summary Submit the category step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.CategoryRequest true "Category selection"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/category [post]
func (h *WizardHandler) SubmitCategory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload"))
		return
	}

	draft, err := h.wizard.SubmitCategory(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SubmitIdentity godoc
// @Summary Submit the identity step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.IdentityRequest true "Identity fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/identity [post]
func (h *WizardHandler) SubmitIdentity(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid identity payload"))
		return
	}

	draft, err := h.wizard.SubmitIdentity(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SubmitAddress godoc
// @Summary Submit the address step
// @Description Validates the address and resolves coordinates when needed
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.AddressRequest true "Address fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /wizard/address [post]
func (h *WizardHandler) SubmitAddress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid address payload"))
		return
	}

	draft, err := h.address.CommitAddress(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// UseDeviceLocation godoc
// @Summary Store device-captured coordinates
// @Description Saves trusted coordinates and best-effort prefills the address
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.DeviceLocationRequest true "Coordinates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/device-location [post]
func (h *WizardHandler) UseDeviceLocation(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.DeviceLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coordinates payload"))
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "coordinates out of range"))
		return
	}

	draft, advisory, err := h.address.UseDeviceLocation(c.Request.Context(), claims.UserID, req.Latitude, req.Longitude)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeviceLocationResponse{Draft: draft, Advisory: advisory}, nil)
}

// SubmitHours godoc
// @Summary Submit the opening-hours step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.HoursRequest true "Opening hours"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/hours [post]
func (h *WizardHandler) SubmitHours(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.HoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hours payload"))
		return
	}

	draft, err := h.wizard.SubmitHours(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SubmitContact godoc
// @Summary Submit the contact step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.ContactRequest true "Contact fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/contact [post]
func (h *WizardHandler) SubmitContact(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}

	draft, err := h.wizard.SubmitContact(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Back godoc
// @Summary Move the wizard one step back
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /wizard/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.wizard.Retreat(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Finish godoc
// @Summary Finish the wizard and assemble the submission
// @Description Accepts multipart images and turns the draft into a pending submission
// @Tags Wizard
// @Accept multipart/form-data
// @Produce json
// @Param images formData file false "Business images (max 6)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /wizard/finish [post]
func (h *WizardHandler) Finish(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	images, err := readUploadedImages(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	sub, err := h.assembler.Finish(c.Request.Context(), claims.UserID, images)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FinishResponse{Submission: sub})
}

func readUploadedImages(c *gin.Context) ([]service.ImageUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
	}

	files := form.File["images"]
	uploads := make([]service.ImageUpload, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded image")
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		file.Close() //nolint:errcheck
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded image")
		}
		uploads = append(uploads, service.ImageUpload{Filename: header.Filename, Data: data})
	}
	return uploads, nil
}
