package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/geocode"
)

type fakeGeocoder struct {
	candidates []geocode.Candidate
	forwardErr error
	address    *geocode.Address
	reverseErr error

	forwardCalls int
	reverseCalls int
	lastQuery    string
}

func (f *fakeGeocoder) Forward(_ context.Context, query string) ([]geocode.Candidate, error) {
	f.forwardCalls++
	f.lastQuery = query
	return f.candidates, f.forwardErr
}

func (f *fakeGeocoder) Reverse(context.Context, float64, float64) (*geocode.Address, error) {
	f.reverseCalls++
	return f.address, f.reverseErr
}

func floatPtr(v float64) *float64 { return &v }

func TestAddressServiceCommit_TrustedCoordsSkipForwardGeocode(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{
		OwnerID:       "owner-1",
		Step:          3,
		Street:        "Rue de Rivoli 1",
		City:          "Paris",
		Country:       "France",
		Latitude:      floatPtr(48.8606),
		Longitude:     floatPtr(2.3376),
		CoordsTrusted: true,
	})
	geo := &fakeGeocoder{}
	svc := NewAddressService(repo, geo, nil, nil)

	draft, err := svc.CommitAddress(context.Background(), "owner-1", dto.AddressRequest{
		Street:  "Rue de Rivoli 1",
		City:    "Paris",
		Country: "France",
	})
	require.NoError(t, err)

	assert.Zero(t, geo.forwardCalls, "trusted coordinates with untouched fields must not re-geocode")
	assert.True(t, draft.CoordsTrusted)
	assert.Equal(t, 4, draft.Step)
}

func TestAddressServiceCommit_EditedFieldTriggersSingleForwardCall(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{
		OwnerID:       "owner-1",
		Step:          3,
		Street:        "Rue de Rivoli 1",
		City:          "Paris",
		Country:       "France",
		Latitude:      floatPtr(48.8606),
		Longitude:     floatPtr(2.3376),
		CoordsTrusted: true,
	})
	geo := &fakeGeocoder{candidates: []geocode.Candidate{{Lat: 52.52, Lon: 13.405}}}
	svc := NewAddressService(repo, geo, nil, nil)

	draft, err := svc.CommitAddress(context.Background(), "owner-1", dto.AddressRequest{
		Street:     "Unter den Linden 77",
		PostalCode: "10117",
		City:       "Berlin",
		Country:    "germany",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, geo.forwardCalls)
	assert.Equal(t, "Unter den Linden 77, 10117, Berlin, germany", geo.lastQuery)
	assert.Equal(t, "Germany", draft.Country, "country is normalized to its canonical spelling")
	assert.Equal(t, 52.52, *draft.Latitude)
	assert.Equal(t, 13.405, *draft.Longitude)
	assert.False(t, draft.CoordsTrusted, "any edit drops the device trust flag")
}

func TestAddressServiceCommit_RequiresCityAndCountry(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 3})
	geo := &fakeGeocoder{}
	svc := NewAddressService(repo, geo, nil, nil)

	_, err := svc.CommitAddress(context.Background(), "owner-1", dto.AddressRequest{Country: "France"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "city")

	_, err = svc.CommitAddress(context.Background(), "owner-1", dto.AddressRequest{City: "Paris"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "country")

	assert.Zero(t, geo.forwardCalls)
}

func TestAddressServiceCommit_NoCandidatesIsGeocodeNotFound(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 3})
	geo := &fakeGeocoder{}
	svc := NewAddressService(repo, geo, nil, nil)

	_, err := svc.CommitAddress(context.Background(), "owner-1", dto.AddressRequest{
		City:    "Atlantis",
		Country: "Nowhere",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrGeocodeNotFound))
}

func TestAddressServiceDeviceLocation_ReverseFailureKeepsCoords(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 3})
	geo := &fakeGeocoder{reverseErr: appErrors.Clone(appErrors.ErrGeocodeService, "")}
	svc := NewAddressService(repo, geo, nil, nil)

	draft, advisory, err := svc.UseDeviceLocation(context.Background(), "owner-1", 36.7538, 3.0588)
	require.NoError(t, err, "a reverse failure must not fail the capture")

	assert.NotEmpty(t, advisory)
	assert.True(t, draft.CoordsTrusted)
	require.NotNil(t, draft.Latitude)
	assert.Equal(t, 36.7538, *draft.Latitude)

	stored := repo.drafts["owner-1"]
	assert.True(t, stored.CoordsTrusted, "coordinates are persisted before the reverse lookup")
}

func TestAddressServiceDeviceLocation_PrefillsOnlyEmptyFields(t *testing.T) {
	repo := newFakeDraftRepo()
	seedDraft(repo, &models.WizardDraft{OwnerID: "owner-1", Step: 3, City: "Algiers"})
	geo := &fakeGeocoder{address: &geocode.Address{
		Street:     "Rue Didouche Mourad",
		City:       "Alger Centre",
		PostalCode: "16000",
		Country:    "Algeria",
	}}
	svc := NewAddressService(repo, geo, nil, nil)

	draft, advisory, err := svc.UseDeviceLocation(context.Background(), "owner-1", 36.7538, 3.0588)
	require.NoError(t, err)

	assert.Empty(t, advisory)
	assert.Equal(t, "Rue Didouche Mourad", draft.Street)
	assert.Equal(t, "Algiers", draft.City, "typed values win over reverse-resolved ones")
	assert.Equal(t, "16000", draft.PostalCode)
	assert.Equal(t, "Algeria", draft.Country)
}

func TestAddressServiceReverseLookup_NullableFields(t *testing.T) {
	geo := &fakeGeocoder{address: &geocode.Address{City: "Berlin", Country: "Germany"}}
	svc := NewAddressService(newFakeDraftRepo(), geo, nil, nil)

	resp, err := svc.ReverseLookup(context.Background(), 52.52, 13.405)
	require.NoError(t, err)

	assert.Nil(t, resp.Street)
	assert.Nil(t, resp.PostalCode)
	require.NotNil(t, resp.City)
	assert.Equal(t, "Berlin", *resp.City)
	require.NotNil(t, resp.Country)
	assert.Equal(t, "Germany", *resp.Country)
}
