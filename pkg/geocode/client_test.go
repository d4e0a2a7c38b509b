package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaseboost/internal/model"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(WithBaseURL(srv.URL)).(*nominatim)
	c.limiter = newTestLimiter()
	return c
}

func TestGeocode_SanDiego(t *testing.T) {
	t.Parallel()

	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "1 Market St, San Diego, CA", r.URL.Query().Get("q"))
		assert.Equal(t, "LeaseBoost/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"32.7100","lon":"-117.1600","display_name":"1, Market Street, San Diego, California, USA"}]`))
	})

	res, err := c.Geocode(context.Background(), "1 Market St, San Diego, CA")
	require.NoError(t, err)
	assert.InDelta(t, 32.71, res.Latitude, 0.0001)
	assert.InDelta(t, -117.16, res.Longitude, 0.0001)
	assert.Contains(t, res.DisplayName, "San Diego")
	assert.True(t, res.Coordinate().Valid())
}

func TestGeocode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		status  int
		body    string
		kind    error
		message string
	}{
		{name: "empty address", address: "   ", kind: model.ErrInvalidInput, message: "Address is required"},
		{name: "no match", address: "nowhere", status: 200, body: `[]`, kind: model.ErrNotFound, message: "Address not found"},
		{name: "upstream 503", address: "x", status: 503, body: `oops`, kind: model.ErrUpstreamUnavailable, message: "Failed to geocode address"},
		{name: "malformed body", address: "x", status: 200, body: `{`, kind: model.ErrUpstreamUnavailable, message: "Failed to geocode address"},
		{name: "out of range", address: "x", status: 200, body: `[{"lat":"95","lon":"0"}]`, kind: model.ErrUpstreamUnavailable, message: "Failed to geocode address"},
		{name: "non numeric", address: "x", status: 200, body: `[{"lat":"north","lon":"0"}]`, kind: model.ErrUpstreamUnavailable, message: "Failed to geocode address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			c := newTestNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			res, err := c.Geocode(context.Background(), tt.address)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.message, model.PublicMessage(err, ""))
			if tt.kind == model.ErrInvalidInput {
				assert.Zero(t, calls)
			} else {
				assert.Equal(t, 1, calls, "geocoder must not retry")
			}
		})
	}
}

func TestGeocode_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(WithBaseURL(srv.URL)).(*nominatim)
	c.limiter = newTestLimiter()

	_, err := c.Geocode(context.Background(), "1 Market St")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUpstreamUnavailable))
}

func TestNewClient_Options(t *testing.T) {
	t.Parallel()

	hc := &http.Client{}
	c := NewClient(
		WithBaseURL("https://geo.example.com/"),
		WithHTTPClient(hc),
		WithUserAgent("Custom/2.0"),
		WithRateLimit(5),
	).(*nominatim)

	assert.Equal(t, "https://geo.example.com", c.baseURL)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, "Custom/2.0", c.userAgent)
	assert.InDelta(t, 5.0, float64(c.limiter.Limit()), 0.001)
}
