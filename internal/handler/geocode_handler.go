package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yenja7/onboarding-api/internal/service"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/response"
)

// GeocodeHandler proxies reverse geocoding for clients that want to preview
// an address before committing coordinates.
type GeocodeHandler struct {
	address *service.AddressService
}

// NewGeocodeHandler creates a new handler.
func NewGeocodeHandler(address *service.AddressService) *GeocodeHandler {
	return &GeocodeHandler{address: address}
}

// Reverse godoc
// @Summary Reverse geocode coordinates
// @Description Resolves coordinates into address fields; fields the upstream cannot resolve are null
// @Tags Geocoding
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /geocode/reverse [get]
func (h *GeocodeHandler) Reverse(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "lat must be a number"))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "lon must be a number"))
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "coordinates out of range"))
		return
	}

	resolved, err := h.address.ReverseLookup(c.Request.Context(), lat, lon)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolved, nil)
}
