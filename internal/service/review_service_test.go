package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

type stubCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{entries: map[string][]byte{}}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[key]
	if !ok {
		return appErrors.Clone(appErrors.ErrCacheMiss, "")
	}
	return json.Unmarshal(data, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = data
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, pattern)
	s.entries = map[string][]byte{}
	return nil
}

type fakeReviewSubmissions struct {
	subs      []models.Submission
	listCalls int
	updates   map[string]models.SubmissionStatus
	missing   bool
}

func (f *fakeReviewSubmissions) ListAll(_ context.Context, status *models.SubmissionStatus) ([]models.Submission, error) {
	f.listCalls++
	if status == nil {
		return f.subs, nil
	}
	filtered := make([]models.Submission, 0)
	for _, sub := range f.subs {
		if sub.Status == *status {
			filtered = append(filtered, sub)
		}
	}
	return filtered, nil
}

func (f *fakeReviewSubmissions) UpdateStatus(_ context.Context, id string, status models.SubmissionStatus) error {
	if f.missing {
		return sql.ErrNoRows
	}
	if f.updates == nil {
		f.updates = map[string]models.SubmissionStatus{}
	}
	f.updates[id] = status
	return nil
}

type fakeOwners struct {
	users   []models.User
	lastIDs []string
}

func (f *fakeOwners) ListByIDs(_ context.Context, ids []string) ([]models.User, error) {
	f.lastIDs = ids
	return f.users, nil
}

func reviewFixture(now time.Time) *fakeReviewSubmissions {
	name := "Chez Ali"
	return &fakeReviewSubmissions{subs: []models.Submission{
		{ID: "sub-3", OwnerID: "owner-1", Category: models.CategoryRestaurant, BusinessName: &name, Status: models.StatusPending, CreatedAt: now.Add(-time.Hour)},
		{ID: "sub-2", OwnerID: "owner-2", Category: models.CategoryGrocery, Status: models.StatusApproved, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "sub-1", OwnerID: "owner-1", Category: models.CategoryCafe, Status: models.StatusDeclined, CreatedAt: now.Add(-10 * 24 * time.Hour)},
	}}
}

func TestReviewServiceDashboard_JoinsOwnersAndDerivesCounts(t *testing.T) {
	now := time.Now().UTC()
	subs := reviewFixture(now)
	owners := &fakeOwners{users: []models.User{
		{ID: "owner-1", Email: "ali@example.com", FullName: "Ali B", Role: models.RoleOwner},
		{ID: "owner-2", Email: "mina@example.com", FullName: "Mina K", Role: models.RoleOwner},
	}}
	svc := NewReviewService(subs, owners, nil, time.Minute, zap.NewNop())

	resp, cached, err := svc.Dashboard(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, cached)

	assert.Equal(t, 3, resp.Counts.Total)
	assert.Equal(t, 1, resp.Counts.Pending)
	assert.Equal(t, 1, resp.Counts.Approved)
	assert.Equal(t, 1, resp.Counts.Declined)
	assert.Equal(t, 2, resp.Counts.LastWeek)

	require.Len(t, resp.Submissions, 3)
	require.NotNil(t, resp.Submissions[0].Owner)
	assert.Equal(t, "ali@example.com", resp.Submissions[0].Owner.Email)

	assert.Len(t, owners.lastIDs, 2, "owner IDs are deduplicated before the batch fetch")
}

func TestReviewServiceDashboard_CachesPerStatusFilter(t *testing.T) {
	now := time.Now().UTC()
	subs := reviewFixture(now)
	cache := NewCacheService(newStubCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewReviewService(subs, &fakeOwners{}, cache, time.Minute, zap.NewNop())

	_, cached, err := svc.Dashboard(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, cached)
	_, cached, err = svc.Dashboard(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, cached)

	assert.Equal(t, 1, subs.listCalls, "the second read is served from cache")

	pending := models.StatusPending
	resp, cached, err := svc.Dashboard(context.Background(), &pending)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, subs.listCalls, "a different filter misses the cache")
	assert.Equal(t, 1, resp.Counts.Total)
}

func TestReviewServiceDashboard_RejectsUnknownStatusFilter(t *testing.T) {
	svc := NewReviewService(&fakeReviewSubmissions{}, &fakeOwners{}, nil, time.Minute, zap.NewNop())

	bogus := models.SubmissionStatus("archived")
	_, _, err := svc.Dashboard(context.Background(), &bogus)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReviewServiceUpdateStatus_IdempotentAndInvalidatesCache(t *testing.T) {
	subs := &fakeReviewSubmissions{}
	cacheRepo := newStubCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewReviewService(subs, &fakeOwners{}, cache, time.Minute, zap.NewNop())

	require.NoError(t, svc.UpdateStatus(context.Background(), "sub-1", models.StatusApproved))
	require.NoError(t, svc.UpdateStatus(context.Background(), "sub-1", models.StatusApproved), "repeating a decision is not an error")
	require.NoError(t, svc.UpdateStatus(context.Background(), "sub-1", models.StatusDeclined), "last write wins")

	assert.Equal(t, models.StatusDeclined, subs.updates["sub-1"])
	assert.Contains(t, cacheRepo.deletes, "dash:admin:*")
}

func TestReviewServiceUpdateStatus_RejectsPendingAndUnknown(t *testing.T) {
	svc := NewReviewService(&fakeReviewSubmissions{}, &fakeOwners{}, nil, time.Minute, zap.NewNop())

	err := svc.UpdateStatus(context.Background(), "sub-1", models.StatusPending)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	missing := &fakeReviewSubmissions{missing: true}
	svc = NewReviewService(missing, &fakeOwners{}, nil, time.Minute, zap.NewNop())
	err = svc.UpdateStatus(context.Background(), "nope", models.StatusApproved)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
