// Package hunter is a client for the Hunter.io email-finder, domain-search and
// email-verifier endpoints.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leaseboost/internal/resilience"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client performs Hunter.io lookups. Each call costs one request credit.
type Client interface {
	EmailFinder(ctx context.Context, req FinderRequest) (*FinderResult, error)
	DomainSearch(ctx context.Context, domain string) (*DomainResult, error)
	EmailVerifier(ctx context.Context, email string) (*VerifierResult, error)
}

// FinderRequest looks up the address of a named person at a domain.
type FinderRequest struct {
	Domain    string
	FirstName string
	LastName  string
}

// Source is a page where Hunter saw an email address.
type Source struct {
	Domain string `json:"domain"`
	URI    string `json:"uri"`
}

// FinderResult is the data of an email-finder response.
type FinderResult struct {
	Email       string   `json:"email"`
	Score       *int     `json:"score"`
	Domain      string   `json:"domain"`
	Position    string   `json:"position"`
	LinkedInURL string   `json:"linkedin_url"`
	Twitter     string   `json:"twitter"`
	PhoneNumber string   `json:"phone_number"`
	Company     string   `json:"company"`
	Sources     []Source `json:"sources"`
}

// DomainEmail is one address listed by domain-search.
type DomainEmail struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
}

// DomainResult is the data of a domain-search response.
type DomainResult struct {
	Domain       string        `json:"domain"`
	Organization string        `json:"organization"`
	Pattern      string        `json:"pattern"`
	LinkedIn     string        `json:"linkedin"`
	Twitter      string        `json:"twitter"`
	Facebook     string        `json:"facebook"`
	Phone        string        `json:"phone_number"`
	Emails       []DomainEmail `json:"emails"`
}

// VerifierResult is the data of an email-verifier response.
type VerifierResult struct {
	Email   string   `json:"email"`
	Result  string   `json:"result"`
	Status  string   `json:"status"`
	Score   int      `json:"score"`
	Sources []Source `json:"sources"`
}

// APIError is a Hunter error response.
type APIError struct {
	StatusCode int
	ID         string `json:"id"`
	Code       int    `json:"code"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	return "hunter: " + e.ID + ": " + e.Details
}

type envelope[T any] struct {
	Data   *T         `json:"data"`
	Errors []APIError `json:"errors"`
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

// NewClient creates a Hunter.io client.
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

func (c *httpClient) EmailFinder(ctx context.Context, req FinderRequest) (*FinderResult, error) {
	params := url.Values{
		"domain":     {req.Domain},
		"first_name": {req.FirstName},
		"last_name":  {req.LastName},
	}
	var env envelope[FinderResult]
	if err := c.get(ctx, "/email-finder", params, &env); err != nil {
		return nil, eris.Wrapf(err, "hunter: email finder %s", req.Domain)
	}
	return env.Data, nil
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string) (*DomainResult, error) {
	var env envelope[DomainResult]
	if err := c.get(ctx, "/domain-search", url.Values{"domain": {domain}}, &env); err != nil {
		return nil, eris.Wrapf(err, "hunter: domain search %s", domain)
	}
	return env.Data, nil
}

func (c *httpClient) EmailVerifier(ctx context.Context, email string) (*VerifierResult, error) {
	var env envelope[VerifierResult]
	if err := c.get(ctx, "/email-verifier", url.Values{"email": {email}}, &env); err != nil {
		return nil, eris.Wrap(err, "hunter: email verifier")
	}
	return env.Data, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if statusErr := resilience.CheckStatus("hunter", resp.StatusCode, body); statusErr != nil {
		var env envelope[struct{}]
		if json.Unmarshal(body, &env) == nil && len(env.Errors) > 0 && !resilience.IsTransient(statusErr) {
			apiErr := env.Errors[0]
			apiErr.StatusCode = resp.StatusCode
			return &apiErr
		}
		return statusErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
