package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

type draftRepository interface {
	Get(ctx context.Context, ownerID string) (*models.WizardDraft, error)
	Save(ctx context.Context, draft *models.WizardDraft) error
	Delete(ctx context.Context, ownerID string) error
}

// WizardService owns the per-owner onboarding draft and its step cursor. It
// performs step-local validation only; cross-step checks happen at assembly.
type WizardService struct {
	drafts    draftRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWizardService constructs a WizardService instance.
func NewWizardService(drafts draftRepository, validate *validator.Validate, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WizardService{drafts: drafts, validator: validate, logger: logger}
}

// Start creates a fresh draft for the owner, replacing any existing one.
func (s *WizardService) Start(ctx context.Context, ownerID string) (*models.WizardDraft, error) {
	draft := models.NewWizardDraft(ownerID)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start draft")
	}
	return draft, nil
}

// Get returns the owner's current draft.
func (s *WizardService) Get(ctx context.Context, ownerID string) (*models.WizardDraft, error) {
	return s.load(ctx, ownerID)
}

// SubmitCategory records the category selection and its matching extras, then
// advances to step 2. Picking a different category than the stored one wipes
// the identity fields so branch data from the old category cannot survive.
func (s *WizardService) SubmitCategory(ctx context.Context, ownerID string, req dto.CategoryRequest) (*models.WizardDraft, error) {
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category: "+string(req.Category))
	}

	draft, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if draft.Category != nil && *draft.Category != req.Category {
		draft.ResetIdentity()
	}

	details, err := filterCategoryDetails(req.Category, req.Details)
	if err != nil {
		return nil, err
	}

	category := req.Category
	draft.Category = &category
	draft.CategoryDetails = details
	if draft.Step < 2 {
		draft.Step = 2
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// SubmitIdentity records the identity variant matching the draft's category
// branch. Exactly one variant is kept; the other is cleared.
func (s *WizardService) SubmitIdentity(ctx context.Context, ownerID string, req dto.IdentityRequest) (*models.WizardDraft, error) {
	draft, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if draft.Category == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category must be selected before identity")
	}

	if draft.Category.IsMedical() {
		if req.DoctorName == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "doctor name is required")
		}
		draft.DoctorName = req.DoctorName
		draft.DoctorDiploma = req.DoctorDiploma
		draft.DoctorRegistration = req.DoctorRegistration
		draft.DoctorExtraInfo = req.DoctorExtraInfo
		draft.BusinessName = ""
		draft.Description = ""
	} else {
		if req.BusinessName == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "business name is required")
		}
		draft.BusinessName = req.BusinessName
		draft.Description = req.Description
		draft.DoctorName = ""
		draft.DoctorDiploma = ""
		draft.DoctorRegistration = ""
		draft.DoctorExtraInfo = ""
	}

	if draft.Step < 3 {
		draft.Step = 3
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// SubmitHours records the opening hours and advances to step 5. At least one
// day must be open with both times set.
func (s *WizardService) SubmitHours(ctx context.Context, ownerID string, req dto.HoursRequest) (*models.WizardDraft, error) {
	if !req.OpeningHours.HasOpenDay() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one day must be open with opening and closing times")
	}
	for day := range req.OpeningHours {
		if !isWeekday(day) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday: "+day)
		}
	}

	draft, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	draft.OpeningHours = req.OpeningHours
	if draft.Step < 5 {
		draft.Step = 5
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// SubmitContact records the contact fields and advances to the final step.
// WhatsApp is the one mandatory channel.
func (s *WizardService) SubmitContact(ctx context.Context, ownerID string, req dto.ContactRequest) (*models.WizardDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "whatsapp contact is required")
	}

	draft, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	draft.Whatsapp = req.Whatsapp
	draft.Phone = req.Phone
	draft.Email = req.Email
	draft.Website = req.Website
	draft.Instagram = req.Instagram
	draft.Facebook = req.Facebook
	if draft.Step < models.WizardLastStep {
		draft.Step = models.WizardLastStep
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Retreat moves the cursor one step back, clamping at the first step. Stored
// field values survive back-navigation untouched.
func (s *WizardService) Retreat(ctx context.Context, ownerID string) (*models.WizardDraft, error) {
	draft, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	draft.Retreat()

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

func (s *WizardService) load(ctx context.Context, ownerID string) (*models.WizardDraft, error) {
	draft, err := s.drafts.Get(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	if draft == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no draft in progress")
	}
	return draft, nil
}

// filterCategoryDetails keeps only the extras that belong to the selected
// category and validates their values.
func filterCategoryDetails(category models.Category, details models.CategoryDetails) (*models.CategoryDetails, error) {
	filtered := &models.CategoryDetails{}
	switch {
	case category == models.CategoryRestaurant || category == models.CategoryCafe:
		filtered.HalalMeat = details.HalalMeat
		filtered.ServeAlcohol = details.ServeAlcohol
	case category == models.CategoryHairdresser:
		if details.HairType != nil {
			switch *details.HairType {
			case models.HairTypeMen, models.HairTypeWomen, models.HairTypeBoth:
			default:
				return nil, appErrors.Clone(appErrors.ErrValidation, "invalid hairdresser type: "+*details.HairType)
			}
		}
		filtered.HairType = details.HairType
	case category == models.CategoryDoctor:
		if details.DoctorSpecialties != nil {
			known := false
			for _, spec := range models.DoctorSpecialties {
				if spec == *details.DoctorSpecialties {
					known = true
					break
				}
			}
			if !known {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown doctor specialty: "+*details.DoctorSpecialties)
			}
		}
		filtered.DoctorSpecialties = details.DoctorSpecialties
	}
	return filtered, nil
}

func isWeekday(day string) bool {
	for _, known := range models.Weekdays {
		if day == known {
			return true
		}
	}
	return false
}
