package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

type fakeDraftRepo struct {
	drafts  map[string]*models.WizardDraft
	saves   int
	getErr  error
	saveErr error
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: map[string]*models.WizardDraft{}}
}

func (f *fakeDraftRepo) Get(_ context.Context, ownerID string) (*models.WizardDraft, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	draft, ok := f.drafts[ownerID]
	if !ok {
		return nil, nil
	}
	copied := *draft
	return &copied, nil
}

func (f *fakeDraftRepo) Save(_ context.Context, draft *models.WizardDraft) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	copied := *draft
	f.drafts[draft.OwnerID] = &copied
	return nil
}

func (f *fakeDraftRepo) Delete(_ context.Context, ownerID string) error {
	delete(f.drafts, ownerID)
	return nil
}

func seedDraft(repo *fakeDraftRepo, draft *models.WizardDraft) {
	repo.drafts[draft.OwnerID] = draft
}

func boolPtr(v bool) *bool       { return &v }
func strPointer(v string) *string { return &v }

func TestWizardServiceStart_CreatesFreshDraft(t *testing.T) {
	repo := newFakeDraftRepo()
	svc := NewWizardService(repo, nil, nil)

	draft, err := svc.Start(context.Background(), "owner-1")
	require.NoError(t, err)

	assert.Equal(t, "owner-1", draft.OwnerID)
	assert.Equal(t, models.WizardFirstStep, draft.Step)
	assert.Nil(t, draft.Category)
}

func TestWizardServiceGet_NoDraftReturnsNotFound(t *testing.T) {
	svc := NewWizardService(newFakeDraftRepo(), nil, nil)

	_, err := svc.Get(context.Background(), "owner-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestWizardServiceSubmitCategory_KeepsOnlyMatchingDetails(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, models.NewWizardDraft("owner-1"))
	svc := NewWizardService(repo, nil, nil)

	draft, err := svc.SubmitCategory(context.Background(), "owner-1", dto.CategoryRequest{
		Category: models.CategoryRestaurant,
		Details: models.CategoryDetails{
			HalalMeat:    boolPtr(true),
			ServeAlcohol: boolPtr(false),
			HairType:     strPointer(models.HairTypeBoth),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, draft.CategoryDetails)
	assert.NotNil(t, draft.CategoryDetails.HalalMeat)
	assert.NotNil(t, draft.CategoryDetails.ServeAlcohol)
	assert.Nil(t, draft.CategoryDetails.HairType, "hair type does not belong to restaurants")
	assert.Equal(t, 2, draft.Step)
}

func TestWizardServiceSubmitCategory_RejectsUnknownValues(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, models.NewWizardDraft("owner-1"))
	svc := NewWizardService(repo, nil, nil)

	_, err := svc.SubmitCategory(context.Background(), "owner-1", dto.CategoryRequest{Category: "bakery"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.SubmitCategory(context.Background(), "owner-1", dto.CategoryRequest{
		Category: models.CategoryHairdresser,
		Details:  models.CategoryDetails{HairType: strPointer("kids")},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.SubmitCategory(context.Background(), "owner-1", dto.CategoryRequest{
		Category: models.CategoryDoctor,
		Details:  models.CategoryDetails{DoctorSpecialties: strPointer("Astrologist")},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestWizardServiceSubmitCategory_ChangeResetsIdentity(t *testing.T) {
	repo := newFakeDraftRepo()
	restaurant := models.CategoryRestaurant
	seedDraft(repo, &models.WizardDraft{
		OwnerID:         "owner-1",
		Step:            3,
		Category:        &restaurant,
		CategoryDetails: &models.CategoryDetails{HalalMeat: boolPtr(true)},
		BusinessName:    "Chez Ali",
		Description:     "couscous",
	})
	svc := NewWizardService(repo, nil, nil)

	draft, err := svc.SubmitCategory(context.Background(), "owner-1", dto.CategoryRequest{Category: models.CategoryDoctor})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryDoctor, *draft.Category)
	assert.Empty(t, draft.BusinessName)
	assert.Empty(t, draft.Description)
	assert.Nil(t, draft.CategoryDetails.HalalMeat)
	assert.Equal(t, 3, draft.Step, "cursor must not regress on resubmission")
}

func TestWizardServiceSubmitIdentity_BranchesAreExclusive(t *testing.T) {
	repo := newFakeDraftRepo()
	doctor := models.CategoryDoctor
	seedDraft(repo, &models.WizardDraft{
		OwnerID:      "owner-1",
		Step:         2,
		Category:     &doctor,
		BusinessName: "stale business name",
	})
	svc := NewWizardService(repo, nil, nil)

	draft, err := svc.SubmitIdentity(context.Background(), "owner-1", dto.IdentityRequest{
		DoctorName:    "Dr. Meziane",
		DoctorDiploma: "MD",
	})
	require.NoError(t, err)

	assert.Equal(t, "Dr. Meziane", draft.DoctorName)
	assert.Empty(t, draft.BusinessName, "generic identity must be cleared on the medical branch")
	assert.Equal(t, 3, draft.Step)

	// Switch to a generic category and confirm the inverse.
	grocery := models.CategoryGrocery
	draft.Category = &grocery
	seedDraft(repo, draft)

	draft, err = svc.SubmitIdentity(context.Background(), "owner-1", dto.IdentityRequest{BusinessName: "Mini Market"})
	require.NoError(t, err)
	assert.Equal(t, "Mini Market", draft.BusinessName)
	assert.Empty(t, draft.DoctorName)
	assert.Empty(t, draft.DoctorDiploma)
}

func TestWizardServiceSubmitIdentity_RequiresCategoryFirst(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, models.NewWizardDraft("owner-1"))
	svc := NewWizardService(repo, nil, nil)

	_, err := svc.SubmitIdentity(context.Background(), "owner-1", dto.IdentityRequest{BusinessName: "Mini Market"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestWizardServiceSubmitHours_RequiresOpenDay(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 4})
	svc := NewWizardService(repo, nil, nil)

	_, err := svc.SubmitHours(context.Background(), "owner-1", dto.HoursRequest{
		OpeningHours: models.OpeningHours{
			"monday": {Closed: true},
		},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.SubmitHours(context.Background(), "owner-1", dto.HoursRequest{
		OpeningHours: models.OpeningHours{
			"monday": {Open: "09:00"},
		},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "an open day needs both times")

	draft, err := svc.SubmitHours(context.Background(), "owner-1", dto.HoursRequest{
		OpeningHours: models.OpeningHours{
			"monday":  {Open: "09:00", Close: "18:00"},
			"tuesday": {Closed: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, draft.Step)
}

func TestWizardServiceSubmitHours_RejectsUnknownWeekday(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 4})
	svc := NewWizardService(repo, nil, nil)

	_, err := svc.SubmitHours(context.Background(), "owner-1", dto.HoursRequest{
		OpeningHours: models.OpeningHours{
			"funday": {Open: "09:00", Close: "18:00"},
		},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestWizardServiceSubmitContact_WhatsappRequired(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 5})
	svc := NewWizardService(repo, nil, nil)

	_, err := svc.SubmitContact(context.Background(), "owner-1", dto.ContactRequest{Phone: "+3312345678"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	draft, err := svc.SubmitContact(context.Background(), "owner-1", dto.ContactRequest{
		Whatsapp:  "+3312345678",
		Instagram: "@minimarket",
	})
	require.NoError(t, err)
	assert.Equal(t, models.WizardLastStep, draft.Step)
	assert.Equal(t, "+3312345678", draft.Whatsapp)
}

func TestWizardServiceRetreat_ClampsAtFirstStep(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 2, BusinessName: "Mini Market"})
	svc := NewWizardService(repo, nil, nil)

	draft, err := svc.Retreat(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Step)
	assert.Equal(t, "Mini Market", draft.BusinessName, "field values survive back-navigation")

	draft, err = svc.Retreat(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Step)
}
