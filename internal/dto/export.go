package dto

import "github.com/yenja7/onboarding-api/internal/models"

// ExportRequest enqueues an asynchronous submissions export.
type ExportRequest struct {
	Format models.ExportFormat      `json:"format" validate:"required"`
	Status *models.SubmissionStatus `json:"status,omitempty"`
}

// ExportJobResponse reports export job state to the caller.
type ExportJobResponse struct {
	ID           string              `json:"id"`
	Status       models.ExportStatus `json:"status"`
	Progress     int                 `json:"progress"`
	ResultURL    *string             `json:"result_url,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
}
