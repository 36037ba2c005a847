package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

// Candidate is one forward-geocoding match.
type Candidate struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
}

// Address is a structured reverse-geocoding result. Fields the upstream
// payload cannot resolve stay empty.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Client talks to a Nominatim-compatible geocoding service.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// ClientConfig carries the upstream endpoint settings.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// NewClient builds a geocoding client. The user agent identifies this
// service to the upstream per its usage policy.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	Address rawAddress `json:"address"`
}

type rawAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Pedestrian   string `json:"pedestrian"`
	Suburb       string `json:"suburb"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Hamlet       string `json:"hamlet"`
	Municipality string `json:"municipality"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
}

// Forward resolves a free-text query into candidate coordinates. An empty
// slice with a nil error means the upstream found nothing.
func (c *Client) Forward(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "5")

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		candidates = append(candidates, Candidate{Lat: lat, Lon: lon, DisplayName: r.DisplayName})
	}
	return candidates, nil
}

// Reverse resolves coordinates into a structured address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	var result reverseResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}

	addr := extractAddress(result.Address)
	return &addr, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrGeocodeService.Code, appErrors.ErrGeocodeService.Status, appErrors.ErrGeocodeService.Message)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrGeocodeService.Code, appErrors.ErrGeocodeService.Status, appErrors.ErrGeocodeService.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("geocode upstream returned %d", resp.StatusCode)
		return appErrors.Wrap(err, appErrors.ErrGeocodeService.Code, appErrors.ErrGeocodeService.Status, appErrors.ErrGeocodeService.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrGeocodeService.Code, appErrors.ErrGeocodeService.Status, appErrors.ErrGeocodeService.Message)
	}
	return nil
}

// extractAddress maps the raw payload onto our address shape. Street parts
// are space-joined skipping empties; city takes the first populated value
// among the locality aliases; country is normalised against the reference
// list with the raw value as fallback.
func extractAddress(raw rawAddress) Address {
	streetParts := make([]string, 0, 4)
	for _, part := range []string{raw.Road, raw.HouseNumber, raw.Pedestrian, raw.Suburb} {
		if part != "" {
			streetParts = append(streetParts, part)
		}
	}

	city := ""
	for _, candidate := range []string{raw.City, raw.Town, raw.Village, raw.Hamlet, raw.Municipality} {
		if candidate != "" {
			city = candidate
			break
		}
	}

	return Address{
		Street:     strings.Join(streetParts, " "),
		City:       city,
		PostalCode: raw.Postcode,
		Country:    NormalizeCountry(raw.Country),
	}
}

// BuildQuery joins the populated address parts into a forward-geocoding
// query: street, postal code, city, country, comma-separated, empties skipped.
func BuildQuery(street, postalCode, city, country string) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{street, postalCode, city, country} {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}
