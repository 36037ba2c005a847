package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/export"
	"github.com/yenja7/onboarding-api/pkg/jobs"
	"github.com/yenja7/onboarding-api/pkg/storage"
)

// ExportJobType identifies background submission-export jobs.
const ExportJobType = "export_submissions"

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ExportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string, finishedAt time.Time) error
	MarkFailed(ctx context.Context, id, message string, finishedAt time.Time) error
}

type exportSubmissionLister interface {
	ListAll(ctx context.Context, status *models.SubmissionStatus) ([]models.Submission, error)
}

type exportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportService runs admin-requested submission exports asynchronously. The
// HTTP request only enqueues; a worker renders the file, stores it, and
// records a signed download URL on the job row.
type ExportService struct {
	exportJobs  exportJobRepository
	submissions exportSubmissionLister
	store       exportFileStore
	signer      *storage.SignedURLSigner
	queue       cleanupQueue
	csv         *export.CSVExporter
	pdf         *export.PDFExporter

	downloadBasePath string
	logger           *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(exportJobs exportJobRepository, submissions exportSubmissionLister, store exportFileStore, signer *storage.SignedURLSigner, queue cleanupQueue, downloadBasePath string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if downloadBasePath == "" {
		downloadBasePath = "/api/v1/admin/exports/download"
	}
	return &ExportService{
		exportJobs:       exportJobs,
		submissions:      submissions,
		store:            store,
		signer:           signer,
		queue:            queue,
		csv:              export.NewCSVExporter(),
		pdf:              export.NewPDFExporter(),
		downloadBasePath: strings.TrimRight(downloadBasePath, "/"),
		logger:           logger,
	}
}

// Enqueue records a new export job and hands it to the worker queue.
func (s *ExportService) Enqueue(ctx context.Context, adminID string, req dto.ExportRequest) (*models.ExportJob, error) {
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter: "+string(*req.Status))
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Params:    models.ExportJobParams{Format: req.Format, Status: req.Status},
		Status:    models.ExportStatusQueued,
		CreatedBy: adminID,
	}
	if err := s.exportJobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
		now := time.Now().UTC()
		if markErr := s.exportJobs.MarkFailed(ctx, job.ID, "failed to enqueue", now); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	s.logger.Info("export job enqueued",
		zap.String("job_id", job.ID),
		zap.String("format", string(req.Format)),
		zap.String("created_by", adminID))

	return job, nil
}

// Process is the queue handler: it renders the export, stores the file, and
// finishes the job with a signed download URL. Render failures are terminal;
// the job row is marked failed and nil is returned so the queue does not
// retry a job whose state is already settled.
func (s *ExportService) Process(ctx context.Context, job jobs.Job) error {
	record, err := s.exportJobs.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", job.ID, err)
	}

	if err := s.exportJobs.UpdateStatus(ctx, record.ID, models.ExportStatusProcessing, 10); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	if err := s.render(ctx, record); err != nil {
		s.logger.Error("export job failed", zap.String("job_id", record.ID), zap.Error(err))
		if markErr := s.exportJobs.MarkFailed(ctx, record.ID, err.Error(), time.Now().UTC()); markErr != nil {
			return fmt.Errorf("mark export job failed: %w", markErr)
		}
		return nil
	}
	return nil
}

func (s *ExportService) render(ctx context.Context, record *models.ExportJob) error {
	subs, err := s.submissions.ListAll(ctx, record.Params.Status)
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}

	dataset := buildExportDataset(subs)

	var data []byte
	switch record.Params.Format {
	case models.ExportFormatPDF:
		data, err = s.pdf.Render(dataset, "Business Submissions")
	default:
		data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return fmt.Errorf("render export: %w", err)
	}

	relPath := fmt.Sprintf("exports/%s.%s", record.ID, record.Params.Format)
	if _, err := s.store.Save(relPath, data); err != nil {
		return fmt.Errorf("store export file: %w", err)
	}

	token, _, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign download url: %w", err)
	}
	resultURL := s.downloadBasePath + "/" + token

	if err := s.exportJobs.MarkFinished(ctx, record.ID, resultURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}

	s.logger.Info("export job finished",
		zap.String("job_id", record.ID),
		zap.String("format", string(record.Params.Format)),
		zap.Int("rows", len(subs)))

	return nil
}

// Status returns the job state for polling clients.
func (s *ExportService) Status(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	job, err := s.exportJobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return &dto.ExportJobResponse{
		ID:           job.ID,
		Status:       job.Status,
		Progress:     job.Progress,
		ResultURL:    job.ResultURL,
		ErrorMessage: job.ErrorMessage,
	}, nil
}

// OpenDownload validates a signed token and returns the export file plus the
// filename the response should advertise.
func (s *ExportService) OpenDownload(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}

	job, err := s.exportJobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not ready")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}

	name := fmt.Sprintf("submissions_%s.%s", job.CreatedAt.Format("2006-01-02"), job.Params.Format)
	return file, name, nil
}

// RunCleanup periodically deletes expired export files until ctx is done.
func (s *ExportService) RunCleanup(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(ttl)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("expired export files removed", zap.Int("count", len(deleted)))
			}
		}
	}
}

func buildExportDataset(subs []models.Submission) export.Dataset {
	headers := []string{"ID", "Name", "Category", "Status", "City", "Country", "WhatsApp", "Phone", "Email", "Images", "Created At"}
	rows := make([]map[string]string, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, map[string]string{
			"ID":         sub.ID,
			"Name":       sub.DisplayName(),
			"Category":   string(sub.Category),
			"Status":     string(sub.Status),
			"City":       deref(sub.City),
			"Country":    deref(sub.Country),
			"WhatsApp":   sub.Whatsapp,
			"Phone":      deref(sub.Phone),
			"Email":      deref(sub.Email),
			"Images":     fmt.Sprintf("%d", sub.ImagesCount),
			"Created At": sub.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
