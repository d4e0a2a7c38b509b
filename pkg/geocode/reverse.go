package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leaseboost/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Reverser resolves a coordinate to the locality it falls in.
type Reverser interface {
	Locality(ctx context.Context, lat, lng float64) (*Locality, error)
}

// Locality is a city with its state short code. State may be empty.
type Locality struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// String formats the locality as "City, ST", or just the city without a state.
func (l Locality) String() string {
	if l.State == "" {
		return l.City
	}
	return l.City + ", " + l.State
}

type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// ReverseOption configures the Google reverse geocoder.
type ReverseOption func(*googleReverse)

// WithReverseURL overrides the Google Geocoding endpoint.
func WithReverseURL(u string) ReverseOption {
	return func(g *googleReverse) {
		g.endpoint = u
	}
}

// WithReverseHTTPClient sets a custom HTTP client.
func WithReverseHTTPClient(hc *http.Client) ReverseOption {
	return func(g *googleReverse) {
		g.httpClient = hc
	}
}

type googleReverse struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGoogleReverse creates a Reverser backed by the Google Geocoding API.
func NewGoogleReverse(apiKey string, opts ...ReverseOption) Reverser {
	g := &googleReverse{
		apiKey:     apiKey,
		endpoint:   googleGeocodeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(50, 50),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Locality returns the locality of the first result. A nil Locality with a nil
// error means Google knows no city for the point.
func (g *googleReverse) Locality(ctx context.Context, lat, lng float64) (*Locality, error) {
	if g.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	params := url.Values{
		"latlng": {strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)},
		"key":    {g.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google read body")
	}
	if err := resilience.CheckStatus("geocode", resp.StatusCode, body); err != nil {
		return nil, err
	}

	var gr googleGeocodeResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", gr.Status, gr.ErrorMessage)
	}
	if len(gr.Results) == 0 {
		return nil, nil
	}

	loc := extractLocality(gr.Results[0].AddressComponents)
	if loc.City == "" {
		return nil, nil
	}
	return &loc, nil
}

func extractLocality(components []addressComponent) Locality {
	var loc Locality
	for _, c := range components {
		switch {
		case loc.City == "" && slices.Contains(c.Types, "locality"):
			loc.City = strings.TrimSpace(c.LongName)
		case loc.State == "" && slices.Contains(c.Types, "administrative_area_level_1"):
			loc.State = strings.TrimSpace(c.ShortName)
		}
	}
	return loc
}
