// Package geocode turns a free-form address into a coordinate using
// OpenStreetMap Nominatim, and a coordinate back into a "City, ST" locality
// using the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leaseboost/internal/model"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "LeaseBoost/1.0"
)

// Client geocodes a single address.
type Client interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Result is the best match for an address.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

// Coordinate returns the result as a model.Coordinate.
func (r *Result) Coordinate() model.Coordinate {
	return model.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// nominatimPlace is one element of the Nominatim search response. Coordinates
// arrive as decimal strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Option configures the Nominatim client.
type Option func(*nominatim)

// WithBaseURL overrides the Nominatim base URL.
func WithBaseURL(u string) Option {
	return func(n *nominatim) {
		n.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *nominatim) {
		n.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(n *nominatim) {
		if ua != "" {
			n.userAgent = ua
		}
	}
}

// WithRateLimit sets the requests-per-second ceiling. The public Nominatim
// usage policy allows one request per second.
func WithRateLimit(rps float64) Option {
	return func(n *nominatim) {
		if rps > 0 {
			n.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
	}
}

type nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Nominatim-backed geocoding Client.
func NewClient(opts ...Option) Client {
	n := &nominatim{
		baseURL:    defaultNominatimURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Geocode resolves address to its first Nominatim match. It makes exactly one
// upstream call and never retries. Errors carry a model.PublicError of kind
// ErrInvalidInput, ErrNotFound or ErrUpstreamUnavailable.
func (n *nominatim) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, model.InvalidInput("Address is required")
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(model.Unavailable("Failed to geocode address"), "geocode: rate limit: "+err.Error())
	}

	params := url.Values{
		"format": {"json"},
		"q":      {address},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("geocode: nominatim request failed", zap.Error(err))
		return nil, eris.Wrap(model.Unavailable("Failed to geocode address"), "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Warn("geocode: nominatim returned error status", zap.Int("status", resp.StatusCode))
		return nil, eris.Wrapf(model.Unavailable("Failed to geocode address"), "geocode: nominatim status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(model.Unavailable("Failed to geocode address"), "geocode: read body: "+err.Error())
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(model.Unavailable("Failed to geocode address"), "geocode: parse response: "+err.Error())
	}
	if len(places) == 0 {
		return nil, model.NotFound("Address not found")
	}

	return parsePlace(places[0])
}

func parsePlace(p nominatimPlace) (*Result, error) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if latErr != nil || lngErr != nil {
		return nil, eris.Wrapf(model.Unavailable("Failed to geocode address"), "geocode: malformed coordinates %q,%q", p.Lat, p.Lon)
	}

	res := &Result{Latitude: lat, Longitude: lng, DisplayName: p.DisplayName}
	if !res.Coordinate().Valid() {
		return nil, eris.Wrapf(model.Unavailable("Failed to geocode address"), "geocode: coordinates out of range %f,%f", lat, lng)
	}
	return res, nil
}
