package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yenja7/onboarding-api/internal/models"
)

const submissionColumns = `id, owner_id, category, category_details, business_name, description, doctor_name, doctor_diploma, doctor_registration, doctor_extra_info, street, city, postal_code, country, latitude, longitude, opening_hours, whatsapp, phone, email, website, instagram, facebook, image_urls, images_count, status, created_at, updated_at`

// SubmissionRepository provides database access for business submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a fully assembled submission.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = models.StatusPending
	}

	const query = `INSERT INTO submissions (id, owner_id, category, category_details, business_name, description, doctor_name, doctor_diploma, doctor_registration, doctor_extra_info, street, city, postal_code, country, latitude, longitude, opening_hours, whatsapp, phone, email, website, instagram, facebook, image_urls, images_count, status, created_at, updated_at) VALUES (:id, :owner_id, :category, :category_details, :business_name, :description, :doctor_name, :doctor_diploma, :doctor_registration, :doctor_extra_info, :street, :city, :postal_code, :country, :latitude, :longitude, :opening_hours, :whatsapp, :phone, :email, :website, :instagram, :facebook, :image_urls, :images_count, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID returns a submission by identifier.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1 LIMIT 1`, submissionColumns)
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission by id: %w", err)
	}
	return &sub, nil
}

// ListAll returns every submission, newest first, optionally filtered by status.
func (r *SubmissionRepository) ListAll(ctx context.Context, status *models.SubmissionStatus) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions`, submissionColumns)
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// ListByOwner returns one owner's submissions, newest first.
func (r *SubmissionRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE owner_id = $1 ORDER BY created_at DESC`, submissionColumns)
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list submissions by owner: %w", err)
	}
	return subs, nil
}

// UpdateStatus sets the review status. Last write wins; the update is a
// single-field write so repeating it with the same value is harmless.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error {
	const query = `UPDATE submissions SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission status affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
