package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/storage"
)

type fakeExportJobs struct {
	records map[string]*models.ExportJob
}

func newFakeExportJobs() *fakeExportJobs {
	return &fakeExportJobs{records: map[string]*models.ExportJob{}}
}

func (f *fakeExportJobs) Create(_ context.Context, job *models.ExportJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	copied := *job
	f.records[job.ID] = &copied
	return nil
}

func (f *fakeExportJobs) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (f *fakeExportJobs) UpdateStatus(_ context.Context, id string, status models.ExportStatus, progress int) error {
	if job, ok := f.records[id]; ok {
		job.Status = status
		job.Progress = progress
	}
	return nil
}

func (f *fakeExportJobs) MarkFinished(_ context.Context, id, resultURL string, finishedAt time.Time) error {
	if job, ok := f.records[id]; ok {
		job.Status = models.ExportStatusFinished
		job.Progress = 100
		job.ResultURL = &resultURL
		job.FinishedAt = &finishedAt
	}
	return nil
}

func (f *fakeExportJobs) MarkFailed(_ context.Context, id, message string, finishedAt time.Time) error {
	if job, ok := f.records[id]; ok {
		job.Status = models.ExportStatusFailed
		job.ErrorMessage = &message
		job.FinishedAt = &finishedAt
	}
	return nil
}

func newExportServiceForTest(t *testing.T, exportJobs *fakeExportJobs, subs *fakeReviewSubmissions, queue *fakeJobQueue) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-signing-secret", time.Hour)
	return NewExportService(exportJobs, subs, store, signer, queue, "", zap.NewNop())
}

func TestExportServiceEnqueue_ValidatesRequest(t *testing.T) {
	svc := newExportServiceForTest(t, newFakeExportJobs(), &fakeReviewSubmissions{}, &fakeJobQueue{})

	_, err := svc.Enqueue(context.Background(), "admin-1", dto.ExportRequest{Format: "xlsx"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	bogus := models.SubmissionStatus("archived")
	_, err = svc.Enqueue(context.Background(), "admin-1", dto.ExportRequest{Format: models.ExportFormatCSV, Status: &bogus})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExportServiceEnqueueAndProcess_CSVRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	exportJobs := newFakeExportJobs()
	queue := &fakeJobQueue{}
	svc := newExportServiceForTest(t, exportJobs, reviewFixture(now), queue)

	job, err := svc.Enqueue(context.Background(), "admin-1", dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, ExportJobType, queue.jobs[0].Type)

	require.NoError(t, svc.Process(context.Background(), queue.jobs[0]))

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)

	token := (*status.ResultURL)[strings.LastIndex(*status.ResultURL, "/")+1:]
	file, name, err := svc.OpenDownload(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()

	assert.True(t, strings.HasSuffix(name, ".csv"))
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ID,Name,Category,Status")
	assert.Contains(t, string(content), "Chez Ali")
}

func TestExportServiceProcess_PDFProducesDocument(t *testing.T) {
	now := time.Now().UTC()
	exportJobs := newFakeExportJobs()
	queue := &fakeJobQueue{}
	svc := newExportServiceForTest(t, exportJobs, reviewFixture(now), queue)

	pending := models.StatusPending
	job, err := svc.Enqueue(context.Background(), "admin-1", dto.ExportRequest{
		Format: models.ExportFormatPDF,
		Status: &pending,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), queue.jobs[0]))

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)

	token := (*status.ResultURL)[strings.LastIndex(*status.ResultURL, "/")+1:]
	file, name, err := svc.OpenDownload(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()

	assert.True(t, strings.HasSuffix(name, ".pdf"))
	header := make([]byte, 4)
	_, err = io.ReadFull(file, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportServiceStatus_UnknownJobNotFound(t *testing.T) {
	svc := newExportServiceForTest(t, newFakeExportJobs(), &fakeReviewSubmissions{}, &fakeJobQueue{})

	_, err := svc.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestExportServiceOpenDownload_RejectsTamperedToken(t *testing.T) {
	now := time.Now().UTC()
	exportJobs := newFakeExportJobs()
	queue := &fakeJobQueue{}
	svc := newExportServiceForTest(t, exportJobs, reviewFixture(now), queue)

	job, err := svc.Enqueue(context.Background(), "admin-1", dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), queue.jobs[0]))

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	token := (*status.ResultURL)[strings.LastIndex(*status.ResultURL, "/")+1:]

	_, _, err = svc.OpenDownload(context.Background(), token+"x")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
