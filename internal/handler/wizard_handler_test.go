package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yenja7/onboarding-api/internal/middleware"
	"github.com/yenja7/onboarding-api/internal/models"
	"github.com/yenja7/onboarding-api/internal/service"
)

type memoryDraftRepo struct {
	drafts map[string]*models.WizardDraft
}

func newMemoryDraftRepo() *memoryDraftRepo {
	return &memoryDraftRepo{drafts: map[string]*models.WizardDraft{}}
}

func (m *memoryDraftRepo) Get(_ context.Context, ownerID string) (*models.WizardDraft, error) {
	draft, ok := m.drafts[ownerID]
	if !ok {
		return nil, nil
	}
	copied := *draft
	return &copied, nil
}

func (m *memoryDraftRepo) Save(_ context.Context, draft *models.WizardDraft) error {
	copied := *draft
	m.drafts[draft.OwnerID] = &copied
	return nil
}

func (m *memoryDraftRepo) Delete(_ context.Context, ownerID string) error {
	delete(m.drafts, ownerID)
	return nil
}

func newWizardHandlerForTest(repo *memoryDraftRepo) *WizardHandler {
	wizard := service.NewWizardService(repo, nil, nil)
	return NewWizardHandler(wizard, nil, nil)
}

func authedContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: models.RoleOwner})
	return c, rec
}

func TestWizardHandlerStart_CreatesDraft(t *testing.T) {
	repo := newMemoryDraftRepo()
	handler := newWizardHandlerForTest(repo)

	c, rec := authedContext(t, http.MethodPost, "/wizard/start", nil)
	handler.Start(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, repo.drafts, "owner-1")
}

func TestWizardHandlerStart_RequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newWizardHandlerForTest(newMemoryDraftRepo())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/wizard/start", nil)

	handler.Start(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWizardHandlerGet_NoDraftIs404(t *testing.T) {
	handler := newWizardHandlerForTest(newMemoryDraftRepo())

	c, rec := authedContext(t, http.MethodGet, "/wizard", nil)
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWizardHandlerSubmitCategory_RoundTrip(t *testing.T) {
	repo := newMemoryDraftRepo()
	repo.drafts["owner-1"] = models.NewWizardDraft("owner-1")
	handler := newWizardHandlerForTest(repo)

	c, rec := authedContext(t, http.MethodPost, "/wizard/category", map[string]interface{}{
		"category": "restaurant",
		"details":  map[string]interface{}{"halalMeat": true},
	})
	handler.SubmitCategory(c)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.WizardDraft `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Step)
	require.NotNil(t, envelope.Data.Category)
	assert.Equal(t, models.CategoryRestaurant, *envelope.Data.Category)
}

func TestWizardHandlerSubmitCategory_UnknownCategoryRejected(t *testing.T) {
	repo := newMemoryDraftRepo()
	repo.drafts["owner-1"] = models.NewWizardDraft("owner-1")
	handler := newWizardHandlerForTest(repo)

	c, rec := authedContext(t, http.MethodPost, "/wizard/category", map[string]interface{}{
		"category": "bakery",
	})
	handler.SubmitCategory(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWizardHandlerSubmitHours_InvalidPayloadRejected(t *testing.T) {
	repo := newMemoryDraftRepo()
	repo.drafts["owner-1"] = &models.WizardDraft{OwnerID: "owner-1", Step: 4}
	handler := newWizardHandlerForTest(repo)

	c, rec := authedContext(t, http.MethodPost, "/wizard/hours", map[string]interface{}{
		"opening_hours": map[string]interface{}{
			"monday": map[string]interface{}{"closed": true},
		},
	})
	handler.SubmitHours(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWizardHandlerBack_MovesCursor(t *testing.T) {
	repo := newMemoryDraftRepo()
	repo.drafts["owner-1"] = &models.WizardDraft{OwnerID: "owner-1", Step: 3}
	handler := newWizardHandlerForTest(repo)

	c, rec := authedContext(t, http.MethodPost, "/wizard/back", nil)
	handler.Back(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, repo.drafts["owner-1"].Step)
}
