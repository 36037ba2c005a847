package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/imaging"
	"github.com/yenja7/onboarding-api/pkg/jobs"
	"github.com/yenja7/onboarding-api/pkg/storage"
)

// CleanupJobType identifies background deletion of stored upload objects.
const CleanupJobType = "cleanup_uploads"

type submissionWriter interface {
	Create(ctx context.Context, sub *models.Submission) error
}

type objectStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

type cleanupQueue interface {
	Enqueue(job jobs.Job) error
}

// ImageUpload is one multipart image part received at finish time.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// AssemblerConfig bounds image handling at assembly time.
type AssemblerConfig struct {
	MaxImages         int
	CompressThreshold int64
	MaxDimension      int
	JPEGQuality       int
	PublicBaseURL     string
}

// AssemblerService turns a completed draft plus uploaded images into exactly
// one persisted submission. Uploads run concurrently; the record is written
// only after every upload succeeded. On any failure the draft survives so the
// owner can retry, and stored objects are cleaned up in the background.
type AssemblerService struct {
	drafts      draftRepository
	submissions submissionWriter
	store       objectStore
	cleanup     cleanupQueue
	cache       *CacheService
	metrics     *MetricsService
	config      AssemblerConfig
	logger      *zap.Logger
}

// NewAssemblerService constructs an AssemblerService instance.
func NewAssemblerService(drafts draftRepository, submissions submissionWriter, store objectStore, cleanup cleanupQueue, cache *CacheService, metrics *MetricsService, config AssemblerConfig, logger *zap.Logger) *AssemblerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxImages <= 0 {
		config.MaxImages = 6
	}
	return &AssemblerService{
		drafts:      drafts,
		submissions: submissions,
		store:       store,
		cleanup:     cleanup,
		cache:       cache,
		metrics:     metrics,
		config:      config,
		logger:      logger,
	}
}

// SetCleanupQueue binds the cleanup queue after construction. The queue's
// handler is this service, so the two cannot be built in one pass.
func (s *AssemblerService) SetCleanupQueue(queue cleanupQueue) {
	s.cleanup = queue
}

// Finish assembles the owner's draft into a pending submission.
func (s *AssemblerService) Finish(ctx context.Context, ownerID string, images []ImageUpload) (*models.Submission, error) {
	draft, err := s.drafts.Get(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	if draft == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no draft in progress")
	}

	if err := validateDraftForAssembly(draft); err != nil {
		return nil, err
	}

	if len(images) > s.config.MaxImages {
		s.logger.Warn("image list truncated",
			zap.String("owner_id", ownerID),
			zap.Int("received", len(images)),
			zap.Int("kept", s.config.MaxImages))
		images = images[:s.config.MaxImages]
	}

	// Validate and compress everything up front so a bad part fails the
	// request before any object is stored.
	processed := make([]*imaging.Result, len(images))
	for i, img := range images {
		result, err := imaging.Process(img.Data, imaging.Options{
			Threshold:    s.config.CompressThreshold,
			MaxDimension: s.config.MaxDimension,
			JPEGQuality:  s.config.JPEGQuality,
		})
		if err != nil {
			return nil, err
		}
		processed[i] = result
	}

	paths, uploadErr := s.uploadAll(ownerID, images, processed)
	if uploadErr != nil {
		s.enqueueCleanup(paths)
		return nil, appErrors.Wrap(uploadErr, appErrors.ErrAssemblyFailed.Code, appErrors.ErrAssemblyFailed.Status, "image upload failed; draft retained")
	}

	sub := s.buildSubmission(draft, paths)
	if err := s.submissions.Create(ctx, sub); err != nil {
		s.enqueueCleanup(paths)
		return nil, appErrors.Wrap(err, appErrors.ErrAssemblyFailed.Code, appErrors.ErrAssemblyFailed.Status, "failed to persist submission; draft retained")
	}

	if err := s.drafts.Delete(ctx, ownerID); err != nil {
		s.logger.Warn("failed to delete draft after assembly", zap.String("owner_id", ownerID), zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dash:admin:*"); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		}
	}

	s.logger.Info("submission assembled",
		zap.String("submission_id", sub.ID),
		zap.String("owner_id", ownerID),
		zap.Int("images", len(paths)))

	return sub, nil
}

// uploadAll stores every processed image concurrently and waits for all of
// them. It returns the relative paths of every object that made it to disk,
// successful or not, so failures can be cleaned up.
func (s *AssemblerService) uploadAll(ownerID string, images []ImageUpload, processed []*imaging.Result) ([]string, error) {
	ts := time.Now().UTC()
	stored := make([]string, len(images))
	errs := make([]error, len(images))

	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			filename := images[idx].Filename
			if processed[idx].Compressed {
				filename = replaceExtension(filename, processed[idx].Extension)
			}
			path := storage.ObjectPath(ownerID, ts, idx, filename)
			rel, err := s.store.Save(path, processed[idx].Data)
			if s.metrics != nil {
				s.metrics.RecordUpload(err)
			}
			if err != nil {
				errs[idx] = appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, "failed to store "+filename)
				return
			}
			stored[idx] = rel
		}(i)
	}
	wg.Wait()

	paths := make([]string, 0, len(images))
	for _, p := range stored {
		if p != "" {
			paths = append(paths, p)
		}
	}
	for _, err := range errs {
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func (s *AssemblerService) buildSubmission(draft *models.WizardDraft, paths []string) *models.Submission {
	urls := make(models.StringList, len(paths))
	base := strings.TrimRight(s.config.PublicBaseURL, "/")
	for i, p := range paths {
		urls[i] = base + "/" + p
	}

	sub := &models.Submission{
		ID:              uuid.NewString(),
		OwnerID:         draft.OwnerID,
		Category:        *draft.Category,
		CategoryDetails: derefDetails(draft.CategoryDetails),
		Street:          nullable(draft.Street),
		City:            nullable(draft.City),
		PostalCode:      nullable(draft.PostalCode),
		Country:         nullable(draft.Country),
		Latitude:        draft.Latitude,
		Longitude:       draft.Longitude,
		OpeningHours:    draft.OpeningHours,
		Whatsapp:        draft.Whatsapp,
		Phone:           nullable(draft.Phone),
		Email:           nullable(draft.Email),
		Website:         nullable(draft.Website),
		Instagram:       nullable(draft.Instagram),
		Facebook:        nullable(draft.Facebook),
		ImageURLs:       urls,
		ImagesCount:     len(urls),
		Status:          models.StatusPending,
	}

	if draft.Category.IsMedical() {
		sub.DoctorName = nullable(draft.DoctorName)
		sub.DoctorDiploma = nullable(draft.DoctorDiploma)
		sub.DoctorRegistration = nullable(draft.DoctorRegistration)
		sub.DoctorExtraInfo = nullable(draft.DoctorExtraInfo)
	} else {
		sub.BusinessName = nullable(draft.BusinessName)
		sub.Description = nullable(draft.Description)
	}

	return sub
}

func (s *AssemblerService) enqueueCleanup(paths []string) {
	if s.cleanup == nil || len(paths) == 0 {
		return
	}
	err := s.cleanup.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    CleanupJobType,
		Payload: paths,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue upload cleanup", zap.Error(err))
	}
}

// HandleCleanup is the queue handler that removes orphaned upload objects
// left behind by a failed assembly.
func (s *AssemblerService) HandleCleanup(ctx context.Context, job jobs.Job) error {
	paths, ok := job.Payload.([]string)
	if !ok {
		s.logger.Warn("cleanup job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	for _, path := range paths {
		if err := s.store.Delete(path); err != nil {
			return err
		}
	}
	s.logger.Info("orphaned uploads removed", zap.String("job_id", job.ID), zap.Int("count", len(paths)))
	return nil
}

func validateDraftForAssembly(draft *models.WizardDraft) error {
	if draft.Category == nil {
		return appErrors.Clone(appErrors.ErrValidation, "category is required")
	}
	if draft.Category.IsMedical() {
		if draft.DoctorName == "" {
			return appErrors.Clone(appErrors.ErrValidation, "doctor name is required")
		}
	} else if draft.BusinessName == "" {
		return appErrors.Clone(appErrors.ErrValidation, "business name is required")
	}
	if draft.Whatsapp == "" {
		return appErrors.Clone(appErrors.ErrValidation, "whatsapp contact is required")
	}
	if !draft.OpeningHours.HasOpenDay() {
		return appErrors.Clone(appErrors.ErrValidation, "opening hours are required")
	}
	if (draft.Latitude == nil) != (draft.Longitude == nil) {
		return appErrors.Clone(appErrors.ErrValidation, "coordinates must be set together or not at all")
	}
	return nil
}

func derefDetails(details *models.CategoryDetails) models.CategoryDetails {
	if details == nil {
		return models.CategoryDetails{}
	}
	return *details
}

func replaceExtension(filename, ext string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		filename = filename[:idx]
	}
	return filename + ext
}
