// Package predicthq searches the PredictHQ events API.
package predicthq

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

	"github.com/sells-group/leaseboost/internal/resilience"
)

const defaultBaseURL = "https://api.predicthq.com/v1"

// DefaultCategories are the PredictHQ categories relevant to local foot traffic.
var DefaultCategories = []string{
	"community",
	"festivals",
	"expos",
	"performing-arts",
	"concerts",
	"sports",
}

// Client searches PredictHQ events.
type Client interface {
	SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error)
}

// SearchRequest is a radius search around a point for upcoming events.
type SearchRequest struct {
	Lat          float64
	Lng          float64
	RadiusMeters int
	Categories   []string
	Limit        int
	// ActiveFrom filters out events that ended before this date. Zero means today.
	ActiveFrom time.Time
}

// Event is one PredictHQ event.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Labels        []string  `json:"labels"`
	Rank          *int      `json:"rank"`
	LocalRank     *int      `json:"local_rank"`
	PhqAttendance *int      `json:"phq_attendance"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	Timezone      string    `json:"timezone"`
	Location      []float64 `json:"location"` // [lng, lat]
	Entities      []Entity  `json:"entities"`
	Geo           *Geo      `json:"geo"`
	State         string    `json:"state"`
}

// LatLng returns the event point, or false when PredictHQ sent none.
func (e *Event) LatLng() (lat, lng float64, ok bool) {
	if len(e.Location) != 2 {
		return 0, 0, false
	}
	return e.Location[1], e.Location[0], true
}

// Venue returns the first venue entity.
func (e *Event) Venue() *Entity {
	for i := range e.Entities {
		if e.Entities[i].Type == "venue" {
			return &e.Entities[i]
		}
	}
	return nil
}

// Entity is a venue, organization or performer linked to an event.
type Entity struct {
	EntityID         string `json:"entity_id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	FormattedAddress string `json:"formatted_address"`
}

// Geo holds the structured address of the event.
type Geo struct {
	Address *struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"address"`
}

type searchResponse struct {
	Count   int     `json:"count"`
	Results []Event `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
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
	now     func() time.Time
}

// NewClient creates a PredictHQ client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error) {
	categories := req.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	from := req.ActiveFrom
	if from.IsZero() {
		from = c.now()
	}

	km := float64(req.RadiusMeters) / 1000
	params := url.Values{
		"within":     {strconv.FormatFloat(km, 'f', -1, 64) + "km@" + strconv.FormatFloat(req.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(req.Lng, 'f', -1, 64)},
		"active.gte": {from.Format("2006-01-02")},
		"category":   {strings.Join(categories, ",")},
		"sort":       {"rank"},
		"limit":      {strconv.Itoa(limit)},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events/?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "predicthq: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "predicthq: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "predicthq: read response body")
	}
	if err := resilience.CheckStatus("predicthq", resp.StatusCode, body); err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "predicthq: decode response")
	}
	return sr.Results, nil
}
