package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yenja7/onboarding-api/internal/models"
)

// ChangeRequestRepository provides database access for business change requests.
type ChangeRequestRepository struct {
	db *sqlx.DB
}

// NewChangeRequestRepository creates a new instance of ChangeRequestRepository.
func NewChangeRequestRepository(db *sqlx.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

// Create inserts a pending change request.
func (r *ChangeRequestRepository) Create(ctx context.Context, req *models.BusinessChangeRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = models.ChangeRequestPending
	}

	const query = `INSERT INTO business_change_requests (id, owner_id, submission_id, changes, status, created_at) VALUES (:id, :owner_id, :submission_id, :changes, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

// ListByOwner returns one owner's change requests, newest first.
func (r *ChangeRequestRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.BusinessChangeRequest, error) {
	const query = `SELECT id, owner_id, submission_id, changes, status, created_at FROM business_change_requests WHERE owner_id = $1 ORDER BY created_at DESC`
	var reqs []models.BusinessChangeRequest
	if err := r.db.SelectContext(ctx, &reqs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list change requests by owner: %w", err)
	}
	return reqs, nil
}
