// Package apify is a minimal client for running Apify actors and reading the
// dataset they produce.
package apify

import (
	"bytes"
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

const defaultBaseURL = "https://api.apify.com/v2"

// Run statuses reported by the actor-runs endpoint.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborting  = "ABORTING"
	StatusAborted   = "ABORTED"
	StatusTimingOut = "TIMING-OUT"
	StatusTimedOut  = "TIMED-OUT"
)

// Client defines the Apify operations used to drive one actor run.
type Client interface {
	RunActor(ctx context.Context, actorID string, input any) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	AbortRun(ctx context.Context, runID string) (*Run, error)
	DatasetItems(ctx context.Context, datasetID string) ([]json.RawMessage, error)
}

// Run is an actor run.
type Run struct {
	ID               string `json:"id"`
	ActID            string `json:"actId"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// Terminal reports whether the run can no longer change status.
func (r *Run) Terminal() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut:
		return true
	}
	return false
}

type runEnvelope struct {
	Data Run `json:"data"`
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
}

// NewClient creates an Apify client authenticated with token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunActor starts actorID with input. Actor ids use "~" between the
// username and the actor name (filip_cicvarek~meetup-scraper).
func (c *httpClient) RunActor(ctx context.Context, actorID string, input any) (*Run, error) {
	var env runEnvelope
	if err := c.do(ctx, http.MethodPost, "/acts/"+url.PathEscape(actorID)+"/runs", input, &env); err != nil {
		return nil, eris.Wrapf(err, "apify: run actor %s", actorID)
	}
	if env.Data.ID == "" {
		return nil, eris.Errorf("apify: run actor %s: response has no run id", actorID)
	}
	return &env.Data, nil
}

func (c *httpClient) GetRun(ctx context.Context, runID string) (*Run, error) {
	var env runEnvelope
	if err := c.do(ctx, http.MethodGet, "/actor-runs/"+url.PathEscape(runID), nil, &env); err != nil {
		return nil, eris.Wrapf(err, "apify: get run %s", runID)
	}
	return &env.Data, nil
}

func (c *httpClient) AbortRun(ctx context.Context, runID string) (*Run, error) {
	var env runEnvelope
	if err := c.do(ctx, http.MethodPost, "/actor-runs/"+url.PathEscape(runID)+"/abort", nil, &env); err != nil {
		return nil, eris.Wrapf(err, "apify: abort run %s", runID)
	}
	return &env.Data, nil
}

func (c *httpClient) DatasetItems(ctx context.Context, datasetID string) ([]json.RawMessage, error) {
	if datasetID == "" {
		return nil, eris.New("apify: dataset id is required")
	}
	var items []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID)+"/items?format=json&clean=true", nil, &items); err != nil {
		return nil, eris.Wrapf(err, "apify: dataset items %s", datasetID)
	}
	return items, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}
	if err := resilience.CheckStatus("apify", resp.StatusCode, data); err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
