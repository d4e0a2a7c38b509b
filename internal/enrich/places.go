package enrich

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leaseboost/internal/metrics"
	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/pkg/google"
)

const (
	detailsProvider    = "google_details"
	textSearchProvider = "google_textsearch"
)

// BusinessResult is the businesses enrichment response body.
type BusinessResult struct {
	Businesses []model.Business `json:"businesses"`
	Enriched   int              `json:"enriched"`
	Total      int              `json:"total"`
}

// EventResult is the events enrichment response body.
type EventResult struct {
	Events   []model.Event `json:"events"`
	Enriched int           `json:"enriched"`
	Total    int           `json:"total"`
}

// Places looks up business and venue contacts with Place Details.
type Places struct {
	client  google.Client
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
}

// PlacesOption configures Places.
type PlacesOption func(*Places)

// WithPlacesRetry sets the retry policy for each lookup.
func WithPlacesRetry(cfg resilience.RetryConfig) PlacesOption {
	return func(p *Places) { p.retry = cfg }
}

// WithPlacesMetrics records lookup outcomes.
func WithPlacesMetrics(m *metrics.Metrics) PlacesOption {
	return func(p *Places) { p.metrics = m }
}

// NewPlaces creates a Places enricher. A nil client makes every call fail
// with an unavailable error.
func NewPlaces(client google.Client, opts ...PlacesOption) *Places {
	p := &Places{client: client, retry: resilience.DefaultRetryConfig()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Businesses enriches the selected businesses that have a place id.
// Eligible records are those with a place id and no phone or email yet.
func (p *Places) Businesses(ctx context.Context, businesses []model.Business, sel Selection) (*BusinessResult, error) {
	if p.client == nil {
		return nil, model.Unavailable("Google Places API key not configured")
	}

	out := slices.Clone(businesses)
	picked := sel.pick(len(out),
		func(i int) string { return model.Deref(out[i].PlaceID) },
		func(i int) bool { return out[i].PlaceID != nil && !out[i].EnrichedContact.Reachable() },
	)

	found := make([]*model.EnrichedContact, len(picked))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for j, i := range picked {
		placeID := model.Deref(out[i].PlaceID)
		if placeID == "" {
			continue
		}
		g.Go(func() error {
			found[j] = p.details(gctx, placeID, nil)
			return nil
		})
	}
	_ = g.Wait()

	enriched := 0
	for j, i := range picked {
		if found[j] == nil {
			continue
		}
		out[i].EnrichedContact = model.MergeContact(out[i].EnrichedContact, found[j])
		enriched++
	}

	zap.L().Info("enrich: businesses",
		zap.Int("total", len(out)),
		zap.Int("selected", len(picked)),
		zap.Int("enriched", enriched),
	)
	return &BusinessResult{Businesses: out, Enriched: enriched, Total: len(out)}, nil
}

// Events enriches the selected events with their venue's contact. Eligible
// records have a venue name and address and no venue phone or email yet.
func (p *Places) Events(ctx context.Context, events []model.Event, sel Selection) (*EventResult, error) {
	if p.client == nil {
		return nil, model.Unavailable("Google Places API key not configured")
	}

	out := slices.Clone(events)
	hasVenue := func(i int) bool {
		v := out[i].Venue
		return v != nil && strings.TrimSpace(v.Name) != "" && strings.TrimSpace(v.Address) != ""
	}
	picked := sel.pick(len(out),
		func(i int) string { return out[i].ID },
		func(i int) bool { return hasVenue(i) && !out[i].VenueContact.Reachable() },
	)

	found := make([]*model.EnrichedContact, len(picked))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for j, i := range picked {
		if !hasVenue(i) {
			continue
		}
		venue := *out[i].Venue
		g.Go(func() error {
			found[j] = p.venueContact(gctx, venue)
			return nil
		})
	}
	_ = g.Wait()

	enriched := 0
	for j, i := range picked {
		if found[j] == nil {
			continue
		}
		out[i].VenueContact = model.MergeContact(out[i].VenueContact, found[j])
		enriched++
	}

	zap.L().Info("enrich: events",
		zap.Int("total", len(out)),
		zap.Int("selected", len(picked)),
		zap.Int("enriched", enriched),
	)
	return &EventResult{Events: out, Enriched: enriched, Total: len(out)}, nil
}

func (p *Places) venueContact(ctx context.Context, venue model.Venue) *model.EnrichedContact {
	start := time.Now()
	resp, err := resilience.DoVal(ctx, p.retry.WithLogger(textSearchProvider, "venue"), func(ctx context.Context) (*google.SearchResponse, error) {
		return p.client.TextSearch(ctx, google.TextSearchRequest{Query: venue.Name + " " + venue.Address})
	})
	hit := err == nil && len(resp.Results) > 0 && resp.Results[0].PlaceID != ""
	observe(p.metrics, textSearchProvider, err, hit, start)
	if err != nil {
		zap.L().Warn("enrich: venue search failed", zap.String("venue", venue.Name), zap.Error(err))
		return nil
	}
	if !hit {
		return nil
	}
	return p.details(ctx, resp.Results[0].PlaceID, &venue)
}

// details fetches the contact of a place. For venues the venue name and
// address fill in what the place lacks.
func (p *Places) details(ctx context.Context, placeID string, venue *model.Venue) *model.EnrichedContact {
	start := time.Now()
	resp, err := resilience.DoVal(ctx, p.retry.WithLogger(detailsProvider, "details"), func(ctx context.Context) (*google.DetailsResponse, error) {
		return p.client.Details(ctx, placeID, google.DetailsFields)
	})
	ok := err == nil && resp.Status == google.StatusOK && resp.Result != nil
	observe(p.metrics, detailsProvider, err, ok, start)
	if err != nil {
		zap.L().Warn("enrich: place details failed", zap.String("place_id", placeID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	r := resp.Result
	c := &model.EnrichedContact{
		Phone:         model.StringOrNil(r.Phone()),
		Website:       model.StringOrNil(r.Website),
		Address:       model.StringOrNil(r.FormattedAddress),
		GooglePlaceID: model.Ptr(placeID),
	}
	if r.OpeningHours != nil && len(r.OpeningHours.WeekdayText) > 0 {
		c.OpeningHours = r.OpeningHours.WeekdayText
	}
	if venue != nil {
		c.Name = model.StringOrNil(r.Name)
		if c.Name == nil {
			c.Name = model.StringOrNil(venue.Name)
		}
		if c.Address == nil {
			c.Address = model.StringOrNil(venue.Address)
		}
	}
	return c
}
