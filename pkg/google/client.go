// Package google wraps the Google Places web service endpoints used for
// nearby search, text search and place details.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leaseboost/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Status values returned in the body of every Places response.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// DetailsFields is the field mask used for contact enrichment.
var DetailsFields = []string{
	"name",
	"formatted_phone_number",
	"international_phone_number",
	"website",
	"opening_hours",
	"formatted_address",
}

// Client performs Google Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, req NearbySearchRequest) (*SearchResponse, error)
	TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error)
	Details(ctx context.Context, placeID string, fields []string) (*DetailsResponse, error)
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// NearbySearchRequest is a nearby search around a point.
type NearbySearchRequest struct {
	Location LatLng
	Radius   int // meters
	Type     string
}

// TextSearchRequest is a free-text search, optionally biased to a circle.
type TextSearchRequest struct {
	Query    string
	Location *LatLng
	Radius   int // meters, ignored without Location
}

// SearchResponse is the response from nearby and text search.
type SearchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []Place `json:"results"`
}

// Place represents a place returned by search.
type Place struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Types            []string  `json:"types"`
	Rating           *float64  `json:"rating"`
	UserRatingsTotal *int      `json:"user_ratings_total"`
	Vicinity         string    `json:"vicinity"`
	FormattedAddress string    `json:"formatted_address"`
	PriceLevel       *int      `json:"price_level"`
	BusinessStatus   string    `json:"business_status"`
	Geometry         *Geometry `json:"geometry"`
	Photos           []Photo   `json:"photos"`
	URL              string    `json:"url"`
}

// Geometry holds the place location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// Photo is a photo reference attached to a place.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// DetailsResponse is the response from Place Details.
type DetailsResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Result       *DetailsResult `json:"result"`
}

// DetailsResult holds the contact fields of a place.
type DetailsResult struct {
	Name                     string        `json:"name"`
	FormattedPhoneNumber     string        `json:"formatted_phone_number"`
	InternationalPhoneNumber string        `json:"international_phone_number"`
	Website                  string        `json:"website"`
	FormattedAddress         string        `json:"formatted_address"`
	OpeningHours             *OpeningHours `json:"opening_hours"`
}

// OpeningHours holds the human-readable weekly schedule.
type OpeningHours struct {
	WeekdayText []string `json:"weekday_text"`
}

// Phone returns the local phone number, falling back to the international one.
func (d *DetailsResult) Phone() string {
	if d.FormattedPhoneNumber != "" {
		return d.FormattedPhoneNumber
	}
	return d.InternationalPhoneNumber
}

// StatusError is returned when the body status is neither OK nor ZERO_RESULTS.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google: status %s: %s", e.Status, e.Message)
	}
	return "google: status " + e.Status
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(50, 50),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbySearchRequest) (*SearchResponse, error) {
	params := url.Values{
		"location": {req.Location.String()},
		"radius":   {strconv.Itoa(req.Radius)},
	}
	if req.Type != "" {
		params.Set("type", req.Type)
	}

	var result SearchResponse
	if err := c.get(ctx, "/place/nearbysearch/json", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: nearby search")
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error) {
	params := url.Values{"query": {req.Query}}
	if req.Location != nil {
		params.Set("location", req.Location.String())
		if req.Radius > 0 {
			params.Set("radius", strconv.Itoa(req.Radius))
		}
	}

	var result SearchResponse
	if err := c.get(ctx, "/place/textsearch/json", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: text search")
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string, fields []string) (*DetailsResponse, error) {
	if placeID == "" {
		return nil, eris.New("google: place id is required")
	}
	if len(fields) == 0 {
		fields = DetailsFields
	}
	params := url.Values{
		"place_id": {placeID},
		"fields":   {strings.Join(fields, ",")},
	}

	var result DetailsResponse
	if err := c.get(ctx, "/place/details/json", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: place details")
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		return nil, err
	}
	return &result, nil
}

// PhotoURL builds a Place Photo URL for a photo reference.
func PhotoURL(apiKey, reference string, maxWidth int) string {
	params := url.Values{
		"maxwidth":        {strconv.Itoa(maxWidth)},
		"photo_reference": {reference},
		"key":             {apiKey},
	}
	return defaultBaseURL + "/place/photo?" + params.Encode()
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if err := resilience.CheckStatus("google", resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}

func checkStatus(status, message string) error {
	switch status {
	case StatusOK, StatusZeroResults:
		return nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return resilience.NewTransientError(&StatusError{Status: status, Message: message}, http.StatusTooManyRequests)
	default:
		return &StatusError{Status: status, Message: message}
	}
}
