// Package facebook searches public events through the Facebook Graph API.
package facebook

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
)

const (
	defaultBaseURL = "https://graph.facebook.com/v18.0"
	eventFields    = "id,name,description,start_time,end_time,place,cover,attending_count,interested_count,is_free"

	// CodeCapabilityMissing is returned when the app lacks event-search approval.
	CodeCapabilityMissing = 3
)

// Client searches Graph API events.
type Client interface {
	SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error)
}

// SearchRequest is one keyword search around a point.
type SearchRequest struct {
	Query          string
	Lat            float64
	Lng            float64
	DistanceMeters int
}

// Event is a Graph API event.
type Event struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Place           *Place `json:"place"`
	Cover           *Cover `json:"cover"`
	AttendingCount  int    `json:"attending_count"`
	InterestedCount int    `json:"interested_count"`
	IsFree          *bool  `json:"is_free"`
}

// Place is the event location.
type Place struct {
	Name     string    `json:"name"`
	Location *Location `json:"location"`
}

// Location is the postal location of a place.
type Location struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Cover is the event cover photo.
type Cover struct {
	Source string `json:"source"`
}

// GraphError is the error object of a Graph API response.
type GraphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("facebook: graph error %d (%s): %s", e.Code, e.Type, e.Message)
}

// CapabilityMissing reports whether the app is not approved for event search.
// Every later query would fail the same way.
func (e *GraphError) CapabilityMissing() bool {
	return e.Code == CodeCapabilityMissing
}

type searchResponse struct {
	Data  []Event     `json:"data"`
	Error *GraphError `json:"error"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default Graph API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Graph API client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchEvents runs one event search. Graph errors are returned as *GraphError
// whatever the HTTP status.
func (c *httpClient) SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error) {
	params := url.Values{
		"type":         {"event"},
		"q":            {req.Query},
		"center":       {strconv.FormatFloat(req.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(req.Lng, 'f', -1, 64)},
		"distance":     {strconv.Itoa(req.DistanceMeters)},
		"fields":       {eventFields},
		"access_token": {c.token},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "facebook: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "facebook: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "facebook: read response body")
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrapf(err, "facebook: decode response (status %d)", resp.StatusCode)
	}
	if sr.Error != nil {
		return nil, sr.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("facebook: unexpected status %d", resp.StatusCode)
	}
	return sr.Data, nil
}
