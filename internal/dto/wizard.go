package dto

import "github.com/yenja7/onboarding-api/internal/models"

// CategoryRequest records the step-1 category selection.
type CategoryRequest struct {
	Category models.Category        `json:"category" validate:"required"`
	Details  models.CategoryDetails `json:"details"`
}

// IdentityRequest records the step-2 identity fields. Which fields are
// required depends on the draft's category branch.
type IdentityRequest struct {
	BusinessName string `json:"business_name"`
	Description  string `json:"description"`

	DoctorName         string `json:"doctor_name"`
	DoctorDiploma      string `json:"doctor_diploma"`
	DoctorRegistration string `json:"doctor_registration"`
	DoctorExtraInfo    string `json:"doctor_extra_info"`
}

// AddressRequest records the step-3 address fields.
type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// DeviceLocationRequest carries device-captured coordinates.
type DeviceLocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// DeviceLocationResponse returns the stored coordinates plus whatever the
// reverse lookup filled in. Advisory is set when the lookup failed; the
// coordinates are valid either way.
type DeviceLocationResponse struct {
	Draft    *models.WizardDraft `json:"draft"`
	Advisory string              `json:"advisory,omitempty"`
}

// HoursRequest records the step-4 opening hours.
type HoursRequest struct {
	OpeningHours models.OpeningHours `json:"opening_hours" validate:"required"`
}

// ContactRequest records the step-5 contact fields.
type ContactRequest struct {
	Whatsapp  string `json:"whatsapp" validate:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Website   string `json:"website"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
}

// FinishResponse returns the assembled submission.
type FinishResponse struct {
	Submission *models.Submission `json:"submission"`
}
