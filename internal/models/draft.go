package models

import "time"

// Wizard step bounds.
const (
	WizardFirstStep = 1
	WizardLastStep  = 6
)

// WizardDraft is the server-held working state of an owner's onboarding
// wizard, persisted as JSON in Redis under draft:{ownerID}. Nothing in it is
// validated across steps until assembly.
type WizardDraft struct {
	OwnerID string `json:"owner_id"`
	Step    int    `json:"step"`

	Category        *Category        `json:"category,omitempty"`
	CategoryDetails *CategoryDetails `json:"category_details,omitempty"`

	BusinessName string `json:"business_name,omitempty"`
	Description  string `json:"description,omitempty"`

	DoctorName         string `json:"doctor_name,omitempty"`
	DoctorDiploma      string `json:"doctor_diploma,omitempty"`
	DoctorRegistration string `json:"doctor_registration,omitempty"`
	DoctorExtraInfo    string `json:"doctor_extra_info,omitempty"`

	Street     string   `json:"street,omitempty"`
	City       string   `json:"city,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Country    string   `json:"country,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`

	// CoordsTrusted marks coordinates captured from the device; a trusted
	// pair short-circuits forward geocoding as long as the address fields
	// stay untouched.
	CoordsTrusted bool `json:"coords_trusted,omitempty"`

	OpeningHours OpeningHours `json:"opening_hours,omitempty"`

	Whatsapp  string `json:"whatsapp,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Website   string `json:"website,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewWizardDraft returns a fresh draft positioned at the first step.
func NewWizardDraft(ownerID string) *WizardDraft {
	return &WizardDraft{OwnerID: ownerID, Step: WizardFirstStep, UpdatedAt: time.Now().UTC()}
}

// Retreat moves the cursor backward, clamping at the first step.
func (d *WizardDraft) Retreat() {
	if d.Step > WizardFirstStep {
		d.Step--
	}
}

// ResetIdentity clears both identity variants and the category extras. Used
// when the owner changes category on back-navigation so stale branch data
// cannot leak into the submission.
func (d *WizardDraft) ResetIdentity() {
	d.CategoryDetails = nil
	d.BusinessName = ""
	d.Description = ""
	d.DoctorName = ""
	d.DoctorDiploma = ""
	d.DoctorRegistration = ""
	d.DoctorExtraInfo = ""
}

// ClearCoords drops the coordinate pair and its trust flag.
func (d *WizardDraft) ClearCoords() {
	d.Latitude = nil
	d.Longitude = nil
	d.CoordsTrusted = false
}

// HasCoords reports whether both coordinates are present.
func (d *WizardDraft) HasCoords() bool {
	return d.Latitude != nil && d.Longitude != nil
}
