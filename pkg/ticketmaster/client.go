// Package ticketmaster queries the Ticketmaster Discovery API.
package ticketmaster

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leaseboost/internal/resilience"
)

const (
	defaultBaseURL = "https://app.ticketmaster.com/discovery/v2"

	// StatusOnSale is the dates.status.code of an event with tickets available.
	StatusOnSale = "onsale"
)

// Client searches Discovery events.
type Client interface {
	SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error)
}

// SearchRequest is a radius search around a point.
type SearchRequest struct {
	Lat          float64
	Lng          float64
	RadiusMeters int
	Size         int
}

// Event is a Discovery API event.
type Event struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	URL             string           `json:"url"`
	Info            string           `json:"info"`
	PleaseNote      string           `json:"pleaseNote"`
	Dates           Dates            `json:"dates"`
	Images          []Image          `json:"images"`
	Classifications []Classification `json:"classifications"`
	PriceRanges     []PriceRange     `json:"priceRanges"`
	Embedded        *EventEmbedded   `json:"_embedded"`
}

// Dates holds start, end and sale status.
type Dates struct {
	Start  DateTime `json:"start"`
	End    DateTime `json:"end"`
	Status struct {
		Code string `json:"code"`
	} `json:"status"`
}

// DateTime is a Discovery timestamp. DateTime is UTC; LocalDate is always set.
type DateTime struct {
	LocalDate string `json:"localDate"`
	LocalTime string `json:"localTime"`
	DateTime  string `json:"dateTime"`
}

// ISO returns the UTC timestamp, falling back to the local date.
func (d DateTime) ISO() string {
	if d.DateTime != "" {
		return d.DateTime
	}
	if d.LocalDate != "" && d.LocalTime != "" {
		return d.LocalDate + "T" + d.LocalTime
	}
	return d.LocalDate
}

// Image is an event image.
type Image struct {
	URL    string `json:"url"`
	Ratio  string `json:"ratio"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Classification is a segment/genre pair.
type Classification struct {
	Segment *Named `json:"segment"`
	Genre   *Named `json:"genre"`
}

// Named is any Discovery object with a name.
type Named struct {
	Name string `json:"name"`
}

// PriceRange is a ticket price band.
type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// EventEmbedded holds the venues and attractions of an event.
type EventEmbedded struct {
	Venues      []Venue      `json:"venues"`
	Attractions []Attraction `json:"attractions"`
}

// Venue is where an event takes place. Coordinates are decimal strings.
type Venue struct {
	Name    string `json:"name"`
	Address struct {
		Line1 string `json:"line1"`
	} `json:"address"`
	City  Named `json:"city"`
	State struct {
		StateCode string `json:"stateCode"`
	} `json:"state"`
	PostalCode string `json:"postalCode"`
	Location   *struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"location"`
}

// LatLng parses the venue coordinates.
func (v *Venue) LatLng() (lat, lng float64, ok bool) {
	if v.Location == nil {
		return 0, 0, false
	}
	lat, latErr := strconv.ParseFloat(v.Location.Latitude, 64)
	lng, lngErr := strconv.ParseFloat(v.Location.Longitude, 64)
	if latErr != nil || lngErr != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// FormattedAddress joins street, city, state and postal code.
func (v *Venue) FormattedAddress() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{v.Address.Line1, v.City.Name, strings.TrimSpace(v.State.StateCode + " " + v.PostalCode)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Attraction is a performer or act linked to an event.
type Attraction struct {
	Name          string                `json:"name"`
	URL           string                `json:"url"`
	ExternalLinks map[string][]LinkItem `json:"externalLinks"`
}

// LinkItem is one external link.
type LinkItem struct {
	URL string `json:"url"`
}

// Links returns every URL of the attraction, its own page first.
func (a *Attraction) Links() []string {
	var out []string
	if a.URL != "" {
		out = append(out, a.URL)
	}
	for _, key := range []string{"homepage", "facebook", "instagram", "twitter", "youtube", "wiki"} {
		for _, l := range a.ExternalLinks[key] {
			if l.URL != "" {
				out = append(out, l.URL)
			}
		}
	}
	return out
}

type searchResponse struct {
	Embedded *struct {
		Events []Event `json:"events"`
	} `json:"_embedded"`
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Discovery API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error) {
	size := req.Size
	if size <= 0 {
		size = 20
	}
	radiusKM := int(math.Max(1, math.Ceil(float64(req.RadiusMeters)/1000)))
	params := url.Values{
		"apikey":  {c.apiKey},
		"latlong": {strconv.FormatFloat(req.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(req.Lng, 'f', -1, 64)},
		"radius":  {strconv.Itoa(radiusKM)},
		"unit":    {"km"},
		"size":    {strconv.Itoa(size)},
		"sort":    {"date,asc"},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "ticketmaster: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "ticketmaster: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ticketmaster: read response body")
	}
	if err := resilience.CheckStatus("ticketmaster", resp.StatusCode, body); err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "ticketmaster: decode response")
	}
	if sr.Embedded == nil {
		return nil, nil
	}
	return sr.Embedded.Events, nil
}
