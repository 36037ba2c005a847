package dto

import "github.com/yenja7/onboarding-api/internal/models"

// SubmissionSummary is the owner-facing view of one submission.
type SubmissionSummary struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Category    models.Category         `json:"category"`
	Status      models.SubmissionStatus `json:"status"`
	City        *string                 `json:"city,omitempty"`
	Country     *string                 `json:"country,omitempty"`
	ImagesCount int                     `json:"images_count"`
	CreatedAt   string                  `json:"created_at"`
}

// ChangeRequestPayload carries the owner's proposed values for the editable
// fields. Absent fields are left untouched; empty strings clear the field.
type ChangeRequestPayload struct {
	BusinessName *string `json:"businessName,omitempty"`
	Description  *string `json:"description,omitempty"`
	Street       *string `json:"street,omitempty"`
	City         *string `json:"city,omitempty"`
	PostalCode   *string `json:"postalCode,omitempty"`
	Country      *string `json:"country,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Whatsapp     *string `json:"whatsapp,omitempty"`
	Website      *string `json:"website,omitempty"`
}
