package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

type submissionReader interface {
	ListAll(ctx context.Context, status *models.SubmissionStatus) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error
}

type ownerReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// ReviewService serves the admin review dashboard: the full submission list
// with owner info joined in, derived counts, and status updates.
type ReviewService struct {
	submissions submissionReader
	owners      ownerReader
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewReviewService constructs a ReviewService instance.
func NewReviewService(submissions submissionReader, owners ownerReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{submissions: submissions, owners: owners, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Dashboard returns all submissions newest first with owner info and derived
// counts. Owner records are fetched in one deduplicated batch query. The
// payload is cached per status filter and invalidated on any write; the
// returned flag reports whether this response came from cache.
func (s *ReviewService) Dashboard(ctx context.Context, status *models.SubmissionStatus) (*dto.AdminDashboardResponse, bool, error) {
	cacheKey := dashboardCacheKey(status)
	if s.cache != nil {
		var cached dto.AdminDashboardResponse
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	if status != nil && !status.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown status filter: "+string(*status))
	}

	subs, err := s.submissions.ListAll(ctx, status)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	ownersByID, err := s.loadOwners(ctx, subs)
	if err != nil {
		return nil, false, err
	}

	resp := &dto.AdminDashboardResponse{
		Counts:      deriveCounts(subs),
		Submissions: make([]dto.SubmissionWithOwner, 0, len(subs)),
	}
	for _, sub := range subs {
		entry := dto.SubmissionWithOwner{Submission: sub}
		if owner, ok := ownersByID[sub.OwnerID]; ok {
			info := models.UserInfo{ID: owner.ID, Email: owner.Email, FullName: owner.FullName, Role: owner.Role}
			entry.Owner = &info
		}
		resp.Submissions = append(resp.Submissions, entry)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard", zap.Error(err))
		}
	}
	return resp, false, nil
}

// UpdateStatus sets a submission's review status. The write is idempotent
// and last write wins; repeating a decision is not an error.
func (s *ReviewService) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error {
	if status != models.StatusApproved && status != models.StatusDeclined {
		return appErrors.Clone(appErrors.ErrValidation, "status must be approved or declined")
	}

	if err := s.submissions.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dash:admin:*"); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		}
	}
	return nil
}

func (s *ReviewService) loadOwners(ctx context.Context, subs []models.Submission) (map[string]models.User, error) {
	seen := make(map[string]struct{}, len(subs))
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		if _, ok := seen[sub.OwnerID]; ok {
			continue
		}
		seen[sub.OwnerID] = struct{}{}
		ids = append(ids, sub.OwnerID)
	}

	owners, err := s.owners.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load owners")
	}

	byID := make(map[string]models.User, len(owners))
	for _, owner := range owners {
		byID[owner.ID] = owner
	}
	return byID, nil
}

// deriveCounts computes the dashboard totals from the already loaded list
// instead of issuing separate count queries.
func deriveCounts(subs []models.Submission) dto.DashboardCounts {
	counts := dto.DashboardCounts{Total: len(subs)}
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	for _, sub := range subs {
		switch sub.Status {
		case models.StatusApproved:
			counts.Approved++
		case models.StatusDeclined:
			counts.Declined++
		default:
			counts.Pending++
		}
		if sub.CreatedAt.After(weekAgo) {
			counts.LastWeek++
		}
	}
	return counts
}

func dashboardCacheKey(status *models.SubmissionStatus) string {
	if status == nil {
		return "dash:admin:all"
	}
	return "dash:admin:" + string(*status)
}
