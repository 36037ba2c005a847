package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, UserAgent: "test-agent", Timeout: time.Second})
}

func TestForwardReturnsCandidates(t *testing.T) {
	var gotQuery, gotAgent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"52.52","lon":"13.405","display_name":"Berlin, Deutschland"}]`))
	})

	candidates, err := client.Forward(context.Background(), "Berlin, Germany")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 52.52, candidates[0].Lat, 0.001)
	assert.InDelta(t, 13.405, candidates[0].Lon, 0.001)
	assert.Equal(t, "Berlin, Germany", gotQuery)
	assert.Equal(t, "test-agent", gotAgent)
}

func TestForwardEmptyResultIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	candidates, err := client.Forward(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestForwardUpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Forward(context.Background(), "Berlin")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrGeocodeService))
}

func TestReverseExtractsAddress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"road":"Unter den Linden","house_number":"77","suburb":"Mitte","city":"Berlin","postcode":"10117","country":"germany"}}`))
	})

	addr, err := client.Reverse(context.Background(), 52.5163, 13.3777)
	require.NoError(t, err)
	assert.Equal(t, "Unter den Linden 77 Mitte", addr.Street)
	assert.Equal(t, "Berlin", addr.City)
	assert.Equal(t, "10117", addr.PostalCode)
	assert.Equal(t, "Germany", addr.Country)
}

func TestReverseCityFallbackOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"village":"Oberdorf","municipality":"Bezirk Nord","country":"Austria"}}`))
	})

	addr, err := client.Reverse(context.Background(), 47.1, 11.2)
	require.NoError(t, err)
	assert.Equal(t, "Oberdorf", addr.City)
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "Germany", NormalizeCountry("GERMANY"))
	assert.Equal(t, "Ivory Coast", NormalizeCountry("ivory coast"))
	assert.Equal(t, "Atlantis", NormalizeCountry("Atlantis"))
	assert.Equal(t, "", NormalizeCountry("  "))
}

func TestBuildQuerySkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "Berlin, Germany", BuildQuery("", "", "Berlin", "Germany"))
	assert.Equal(t, "Hauptstr. 5, 10115, Berlin, Germany", BuildQuery("Hauptstr. 5", "10115", "Berlin", "Germany"))
	assert.Equal(t, "", BuildQuery("", "", "", ""))
}
