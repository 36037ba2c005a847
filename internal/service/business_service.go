package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

type ownedSubmissionReader interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Submission, error)
}

type changeRequestRepository interface {
	Create(ctx context.Context, req *models.BusinessChangeRequest) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.BusinessChangeRequest, error)
}

// BusinessService serves the owner-facing views of their submitted businesses
// and the change-request flow for fields that are locked after submission.
type BusinessService struct {
	submissions    ownedSubmissionReader
	changeRequests changeRequestRepository
	logger         *zap.Logger
}

// NewBusinessService constructs a BusinessService instance.
func NewBusinessService(submissions ownedSubmissionReader, changeRequests changeRequestRepository, logger *zap.Logger) *BusinessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessService{submissions: submissions, changeRequests: changeRequests, logger: logger}
}

// ListMySubmissions returns the owner's submissions newest first, reduced to
// the summary the listing screen needs.
func (s *BusinessService) ListMySubmissions(ctx context.Context, ownerID string) ([]dto.SubmissionSummary, error) {
	subs, err := s.submissions.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	summaries := make([]dto.SubmissionSummary, 0, len(subs))
	for _, sub := range subs {
		summaries = append(summaries, dto.SubmissionSummary{
			ID:          sub.ID,
			Name:        sub.DisplayName(),
			Category:    sub.Category,
			Status:      sub.Status,
			City:        sub.City,
			Country:     sub.Country,
			ImagesCount: sub.ImagesCount,
			CreatedAt:   sub.CreatedAt.Format(time.RFC3339),
		})
	}
	return summaries, nil
}

// MyBusiness returns the owner's primary business record: the most recently
// submitted one.
func (s *BusinessService) MyBusiness(ctx context.Context, ownerID string) (*models.Submission, error) {
	subs, err := s.submissions.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business")
	}
	if len(subs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no business on record")
	}
	return &subs[0], nil
}

// SubmitChangeRequest diffs the proposed values against the owner's primary
// business and records only the fields that actually changed. Absent payload
// fields are ignored; an empty string requests clearing the field. A request
// that changes nothing is rejected.
func (s *BusinessService) SubmitChangeRequest(ctx context.Context, ownerID string, payload dto.ChangeRequestPayload) (*models.BusinessChangeRequest, error) {
	current, err := s.MyBusiness(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	changes := buildChangeSet(current, payload)
	if len(changes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no changes requested")
	}

	req := &models.BusinessChangeRequest{
		OwnerID:      ownerID,
		SubmissionID: current.ID,
		Changes:      changes,
	}
	if err := s.changeRequests.Create(ctx, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record change request")
	}

	s.logger.Info("change request recorded",
		zap.String("owner_id", ownerID),
		zap.String("submission_id", current.ID),
		zap.Int("fields", len(changes)))

	return req, nil
}

// MyChangeRequests returns the owner's change requests newest first.
func (s *BusinessService) MyChangeRequests(ctx context.Context, ownerID string) ([]models.BusinessChangeRequest, error) {
	reqs, err := s.changeRequests.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change requests")
	}
	return reqs, nil
}

// buildChangeSet compares each provided payload field with the stored value
// and keeps only real differences. Cleared fields are stored as nil.
func buildChangeSet(current *models.Submission, payload dto.ChangeRequestPayload) models.ChangeSet {
	whatsapp := current.Whatsapp
	proposals := []struct {
		name     string
		proposed *string
		stored   *string
	}{
		{"businessName", payload.BusinessName, current.BusinessName},
		{"description", payload.Description, current.Description},
		{"street", payload.Street, current.Street},
		{"city", payload.City, current.City},
		{"postalCode", payload.PostalCode, current.PostalCode},
		{"country", payload.Country, current.Country},
		{"phone", payload.Phone, current.Phone},
		{"whatsapp", payload.Whatsapp, &whatsapp},
		{"website", payload.Website, current.Website},
	}

	changes := models.ChangeSet{}
	for _, p := range proposals {
		if p.proposed == nil {
			continue
		}
		proposed := strings.TrimSpace(*p.proposed)
		stored := ""
		if p.stored != nil {
			stored = *p.stored
		}
		if proposed == stored {
			continue
		}
		if proposed == "" {
			changes[p.name] = nil
			continue
		}
		value := proposed
		changes[p.name] = &value
	}
	return changes
}
