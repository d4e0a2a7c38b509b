// Package meetup queries the Meetup GraphQL API for events near a point.
package meetup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leaseboost/internal/resilience"
)

const (
	defaultBaseURL = "https://api.meetup.com"
	// DefaultKeyword is the keyword expression used for community events.
	DefaultKeyword = "community OR farmers market OR local event OR festival"
)

const searchQuery = `query FindEvents($keyword: String!, $lat: Float!, $lon: Float!, $radius: Float!) {
  keywordSearch(input: {keyword: $keyword, lat: $lat, lon: $lon, radius: $radius, source: EVENTS}) {
    ... on KeywordSearchEventsConnection {
      count
      edges {
        node {
          id
          title
          description
          dateTime
          endTime
          eventUrl
          venue { name address city lat lon }
          group { name }
          going
          isOnline
        }
      }
    }
  }
}`

// Client searches Meetup events.
type Client interface {
	SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error)
}

// SearchRequest describes a keyword search around a point.
type SearchRequest struct {
	Keyword  string
	Lat      float64
	Lon      float64
	RadiusKM float64
}

// Event is one keywordSearch node.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateTime    string `json:"dateTime"`
	EndTime     string `json:"endTime"`
	EventURL    string `json:"eventUrl"`
	Venue       *Venue `json:"venue"`
	Group       *Group `json:"group"`
	Going       int    `json:"going"`
	IsOnline    bool   `json:"isOnline"`
}

// Venue is where a Meetup event takes place.
type Venue struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	City    string   `json:"city"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// Group is the hosting Meetup group.
type Group struct {
	Name string `json:"name"`
}

// GraphQLError is one entry of the GraphQL errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// QueryError is returned when the response carries GraphQL errors and no data.
type QueryError struct {
	Errors []GraphQLError
}

func (e *QueryError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "meetup: graphql: " + strings.Join(msgs, "; ")
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type searchResponse struct {
	Data *struct {
		KeywordSearch *struct {
			Count int `json:"count"`
			Edges []struct {
				Node Event `json:"node"`
			} `json:"edges"`
		} `json:"keywordSearch"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
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

// NewClient creates a Meetup GraphQL client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error) {
	keyword := req.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}
	payload := graphQLRequest{
		Query: searchQuery,
		Variables: map[string]any{
			"keyword": keyword,
			"lat":     req.Lat,
			"lon":     req.Lon,
			"radius":  req.RadiusKM,
		},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "meetup: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/gql", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "meetup: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "meetup: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "meetup: read response body")
	}
	if err := resilience.CheckStatus("meetup", resp.StatusCode, body); err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "meetup: decode response")
	}
	if sr.Data == nil || sr.Data.KeywordSearch == nil {
		if len(sr.Errors) > 0 {
			return nil, &QueryError{Errors: sr.Errors}
		}
		return nil, nil
	}

	events := make([]Event, 0, len(sr.Data.KeywordSearch.Edges))
	for _, edge := range sr.Data.KeywordSearch.Edges {
		events = append(events, edge.Node)
	}
	return events, nil
}
