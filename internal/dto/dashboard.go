package dto

import "github.com/yenja7/onboarding-api/internal/models"

// DashboardCounts aggregates review totals for the admin dashboard.
type DashboardCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Declined int `json:"declined"`
	LastWeek int `json:"lastWeek"`
}

// SubmissionWithOwner pairs a submission with its owner's account info.
type SubmissionWithOwner struct {
	models.Submission
	Owner *models.UserInfo `json:"owner,omitempty"`
}

// AdminDashboardResponse is the admin review dashboard payload.
type AdminDashboardResponse struct {
	Counts      DashboardCounts       `json:"counts"`
	Submissions []SubmissionWithOwner `json:"submissions"`
}

// StatusUpdateRequest sets a submission's review status.
type StatusUpdateRequest struct {
	Status models.SubmissionStatus `json:"status" validate:"required"`
}
