package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yenja7/onboarding-api/internal/dto"
	"github.com/yenja7/onboarding-api/internal/models"
	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
	"github.com/yenja7/onboarding-api/pkg/geocode"
)

type geocoder interface {
	Forward(ctx context.Context, query string) ([]geocode.Candidate, error)
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Address, error)
}

// AddressService reconciles the wizard's address step with the geocoding
// upstream. Coordinates enter the draft either trusted (from the device) or
// derived (from a forward geocode of the typed address).
type AddressService struct {
	drafts   draftRepository
	geocoder geocoder
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAddressService constructs an AddressService instance.
func NewAddressService(drafts draftRepository, geocoder geocoder, metrics *MetricsService, logger *zap.Logger) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressService{drafts: drafts, geocoder: geocoder, metrics: metrics, logger: logger}
}

// UseDeviceLocation stores device-captured coordinates as trusted, then
// best-effort reverse geocodes them to prefill address fields that are still
// empty. A reverse failure never invalidates the coordinates; it only yields
// an advisory for the client.
func (s *AddressService) UseDeviceLocation(ctx context.Context, ownerID string, lat, lon float64) (*models.WizardDraft, string, error) {
	draft, err := s.loadDraft(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}

	draft.Latitude = &lat
	draft.Longitude = &lon
	draft.CoordsTrusted = true

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}

	start := time.Now()
	addr, revErr := s.geocoder.Reverse(ctx, lat, lon)
	if s.metrics != nil {
		s.metrics.ObserveGeocodeRequest("reverse", revErr, time.Since(start))
	}
	if revErr != nil {
		s.logger.Warn("reverse geocode failed after device location capture",
			zap.String("owner_id", ownerID), zap.Error(revErr))
		return draft, "location saved, but the address could not be resolved; please fill it in manually", nil
	}

	if draft.Street == "" {
		draft.Street = addr.Street
	}
	if draft.City == "" {
		draft.City = addr.City
	}
	if draft.PostalCode == "" {
		draft.PostalCode = addr.PostalCode
	}
	if draft.Country == "" {
		draft.Country = addr.Country
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, "", nil
}

// CommitAddress validates and stores the address step. Trusted coordinates
// with untouched fields skip the forward geocode entirely; any edit drops
// the trust flag and re-resolves. Exactly one forward call is made per
// non-trusted commit.
func (s *AddressService) CommitAddress(ctx context.Context, ownerID string, req dto.AddressRequest) (*models.WizardDraft, error) {
	draft, err := s.loadDraft(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	street := strings.TrimSpace(req.Street)
	city := strings.TrimSpace(req.City)
	postalCode := strings.TrimSpace(req.PostalCode)
	country := strings.TrimSpace(req.Country)

	unchanged := street == draft.Street &&
		city == draft.City &&
		postalCode == draft.PostalCode &&
		country == draft.Country

	if draft.CoordsTrusted && draft.HasCoords() && unchanged {
		if draft.Step < 4 {
			draft.Step = 4
		}
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
		}
		return draft, nil
	}

	if city == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "city is required")
	}
	if country == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "country is required")
	}

	query := geocode.BuildQuery(street, postalCode, city, country)

	start := time.Now()
	candidates, fwdErr := s.geocoder.Forward(ctx, query)
	if s.metrics != nil {
		s.metrics.ObserveGeocodeRequest("forward", fwdErr, time.Since(start))
	}
	if fwdErr != nil {
		return nil, fwdErr
	}
	if len(candidates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrGeocodeNotFound, "")
	}

	best := candidates[0]
	draft.ClearCoords()
	draft.Street = street
	draft.City = city
	draft.PostalCode = postalCode
	draft.Country = geocode.NormalizeCountry(country)
	draft.Latitude = &best.Lat
	draft.Longitude = &best.Lon
	if draft.Step < 4 {
		draft.Step = 4
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// ReverseLookup proxies a reverse-geocode request for the client. All fields
// are nullable because the upstream may resolve only part of the address.
func (s *AddressService) ReverseLookup(ctx context.Context, lat, lon float64) (*dto.ReverseGeocodeResponse, error) {
	start := time.Now()
	addr, err := s.geocoder.Reverse(ctx, lat, lon)
	if s.metrics != nil {
		s.metrics.ObserveGeocodeRequest("reverse", err, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	return &dto.ReverseGeocodeResponse{
		Street:     nullable(addr.Street),
		City:       nullable(addr.City),
		PostalCode: nullable(addr.PostalCode),
		Country:    nullable(addr.Country),
	}, nil
}

func (s *AddressService) loadDraft(ctx context.Context, ownerID string) (*models.WizardDraft, error) {
	draft, err := s.drafts.Get(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	if draft == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no draft in progress")
	}
	return draft, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
