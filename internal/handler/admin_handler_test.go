package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	"github.com/yenja7/onboarding-api/internal/service"
)

type stubSubmissions struct {
	subs    []models.Submission
	updated map[string]models.SubmissionStatus
	missing bool
}

func (s *stubSubmissions) ListAll(context.Context, *models.SubmissionStatus) ([]models.Submission, error) {
	return s.subs, nil
}

func (s *stubSubmissions) UpdateStatus(_ context.Context, id string, status models.SubmissionStatus) error {
	if s.missing {
		return sql.ErrNoRows
	}
	if s.updated == nil {
		s.updated = map[string]models.SubmissionStatus{}
	}
	s.updated[id] = status
	return nil
}

type stubOwners struct{}

func (stubOwners) ListByIDs(context.Context, []string) ([]models.User, error) {
	return nil, nil
}

func newAdminHandlerForTest(subs *stubSubmissions) *AdminHandler {
	review := service.NewReviewService(subs, stubOwners{}, nil, time.Minute, zap.NewNop())
	return NewAdminHandler(review, nil)
}

func TestAdminHandlerDashboard_ReturnsCounts(t *testing.T) {
	name := "Chez Ali"
	subs := &stubSubmissions{subs: []models.Submission{
		{ID: "sub-1", OwnerID: "owner-1", BusinessName: &name, Status: models.StatusPending, CreatedAt: time.Now().UTC()},
	}}
	handler := newAdminHandlerForTest(subs)

	c, rec := authedContext(t, http.MethodGet, "/admin/dashboard", nil)
	handler.Dashboard(c)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data dto.AdminDashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Counts.Total)
	assert.Equal(t, 1, envelope.Data.Counts.Pending)
	require.Len(t, envelope.Data.Submissions, 1)
}

func TestAdminHandlerDashboard_BadStatusFilter(t *testing.T) {
	handler := newAdminHandlerForTest(&stubSubmissions{})

	c, rec := authedContext(t, http.MethodGet, "/admin/dashboard?status=archived", nil)
	handler.Dashboard(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandlerUpdateStatus_Approves(t *testing.T) {
	subs := &stubSubmissions{}
	handler := newAdminHandlerForTest(subs)

	c, rec := authedContext(t, http.MethodPatch, "/admin/submissions/sub-1/status", map[string]string{
		"status": "approved",
	})
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	handler.UpdateStatus(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.StatusApproved, subs.updated["sub-1"])
}

func TestAdminHandlerUpdateStatus_UnknownSubmission(t *testing.T) {
	handler := newAdminHandlerForTest(&stubSubmissions{missing: true})

	c, rec := authedContext(t, http.MethodPatch, "/admin/submissions/nope/status", map[string]string{
		"status": "declined",
	})
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandlerUpdateStatus_PendingRejected(t *testing.T) {
	handler := newAdminHandlerForTest(&stubSubmissions{})

	c, rec := authedContext(t, http.MethodPatch, "/admin/submissions/sub-1/status", map[string]string{
		"status": "pending",
	})
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
