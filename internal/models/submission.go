package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Category enumerates the supported business categories.
type Category string

const (
	CategoryRestaurant        Category = "restaurant"
	CategoryGrocery           Category = "grocery"
	CategoryCafe              Category = "cafe"
	CategoryHairdresser       Category = "hairdresser"
	CategoryDoctor            Category = "doctor"
	CategoryDentist           Category = "dentist"
	CategoryMechanic          Category = "mechanic"
	CategoryPainter           Category = "painter"
	CategoryPlumber           Category = "plumber"
	CategoryDrivingSchool     Category = "driving_school"
	CategoryTransportDelivery Category = "transport_delivery"
	CategoryOther             Category = "other"
)

// AllCategories lists every valid category in display order.
var AllCategories = []Category{
	CategoryRestaurant, CategoryGrocery, CategoryCafe, CategoryHairdresser,
	CategoryDoctor, CategoryDentist, CategoryMechanic, CategoryPainter,
	CategoryPlumber, CategoryDrivingSchool, CategoryTransportDelivery,
	CategoryOther,
}

// Valid reports whether the category is a known value.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsMedical reports whether the category uses the practitioner identity
// variant instead of the generic business one.
func (c Category) IsMedical() bool {
	return c == CategoryDoctor || c == CategoryDentist
}

// DoctorSpecialties is the fixed specialty list offered for doctors.
var DoctorSpecialties = []string{
	"General practitioner",
	"Pediatrician",
	"Gynecologist",
	"Cardiologist",
	"Dermatologist",
	"Psychologist / Psychiatrist",
	"Orthopedist",
	"ENT (Ear, Nose, Throat)",
	"Other specialist",
}

// HairType values accepted for hairdressers.
const (
	HairTypeMen   = "men"
	HairTypeWomen = "women"
	HairTypeBoth  = "both"
)

// CategoryDetails carries the category-specific extras. Only the fields
// matching the selected category are ever populated.
type CategoryDetails struct {
	HalalMeat         *bool   `json:"halalMeat,omitempty"`
	ServeAlcohol      *bool   `json:"serveAlcohol,omitempty"`
	HairType          *string `json:"hairType,omitempty"`
	DoctorSpecialties *string `json:"doctorSpecialties,omitempty"`
}

// Value marshals details to JSON for persistence.
func (d CategoryDetails) Value() (driver.Value, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal category details: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the details struct.
func (d *CategoryDetails) Scan(value interface{}) error {
	return scanJSON(value, d, "CategoryDetails")
}

// DayHours holds one weekday's opening window.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed,omitempty"`
}

// Weekdays lists the opening-hours keys in week order.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// OpeningHours maps weekday keys to their opening windows. Days may be
// missing entirely; a missing day is not the same as a closed one.
type OpeningHours map[string]DayHours

// HasOpenDay reports whether at least one day is open with both times set.
func (h OpeningHours) HasOpenDay() bool {
	for _, day := range h {
		if !day.Closed && day.Open != "" && day.Close != "" {
			return true
		}
	}
	return false
}

// Value marshals opening hours to JSON for persistence.
func (h OpeningHours) Value() (driver.Value, error) {
	if h == nil {
		h = OpeningHours{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal opening hours: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the opening hours map.
func (h *OpeningHours) Scan(value interface{}) error {
	return scanJSON(value, h, "OpeningHours")
}

// StringList is a JSONB-backed string slice.
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the list.
func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l, "StringList")
}

// SubmissionStatus captures the review lifecycle of a submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusDeclined SubmissionStatus = "declined"
)

// Valid reports whether the status is a known value.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined:
		return true
	}
	return false
}

// Submission is a fully assembled business listing awaiting or past review.
// Identity fields are variant: generic businesses carry BusinessName, medical
// categories carry the doctor fields instead.
type Submission struct {
	ID              string          `db:"id" json:"id"`
	OwnerID         string          `db:"owner_id" json:"owner_id"`
	Category        Category        `db:"category" json:"category"`
	CategoryDetails CategoryDetails `db:"category_details" json:"category_details"`

	BusinessName *string `db:"business_name" json:"business_name,omitempty"`
	Description  *string `db:"description" json:"description,omitempty"`

	DoctorName         *string `db:"doctor_name" json:"doctor_name,omitempty"`
	DoctorDiploma      *string `db:"doctor_diploma" json:"doctor_diploma,omitempty"`
	DoctorRegistration *string `db:"doctor_registration" json:"doctor_registration,omitempty"`
	DoctorExtraInfo    *string `db:"doctor_extra_info" json:"doctor_extra_info,omitempty"`

	Street     *string  `db:"street" json:"street,omitempty"`
	City       *string  `db:"city" json:"city,omitempty"`
	PostalCode *string  `db:"postal_code" json:"postal_code,omitempty"`
	Country    *string  `db:"country" json:"country,omitempty"`
	Latitude   *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude  *float64 `db:"longitude" json:"longitude,omitempty"`

	OpeningHours OpeningHours `db:"opening_hours" json:"opening_hours"`

	Whatsapp  string  `db:"whatsapp" json:"whatsapp"`
	Phone     *string `db:"phone" json:"phone,omitempty"`
	Email     *string `db:"email" json:"email,omitempty"`
	Website   *string `db:"website" json:"website,omitempty"`
	Instagram *string `db:"instagram" json:"instagram,omitempty"`
	Facebook  *string `db:"facebook" json:"facebook,omitempty"`

	ImageURLs   StringList       `db:"image_urls" json:"image_urls"`
	ImagesCount int              `db:"images_count" json:"images_count"`
	Status      SubmissionStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the headline name regardless of identity variant.
func (s *Submission) DisplayName() string {
	if s.Category.IsMedical() && s.DoctorName != nil && *s.DoctorName != "" {
		return *s.DoctorName
	}
	if s.BusinessName != nil {
		return *s.BusinessName
	}
	return ""
}

func scanJSON(value interface{}, dest interface{}, name string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, name)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
