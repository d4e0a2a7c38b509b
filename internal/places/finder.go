// Package places finds a diverse set of nearby businesses by searching
// several place categories in parallel.
package places

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leaseboost/internal/dedup"
	"github.com/sells-group/leaseboost/internal/metrics"
	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/pkg/google"
)

// Categories is the ordered list of place types. Only the first
// DefaultCategoryCount are searched unless configured otherwise.
var Categories = []string{
	"restaurant",
	"cafe",
	"gym",
	"shopping_mall",
	"store",
	"bank",
	"pharmacy",
	"gas_station",
	"park",
	"school",
	"hospital",
	"beauty_salon",
	"hair_care",
	"spa",
	"movie_theater",
	"bar",
	"bakery",
	"book_store",
	"clothing_store",
	"supermarket",
	"library",
	"church",
	"university",
	"veterinary_care",
	"post_office",
}

const (
	DefaultCategoryCount = 15
	DefaultRadiusMeters  = 2000
	DefaultPerCategory   = 2

	// MockMessage accompanies the sample set returned without a Places key.
	MockMessage = "Mock data - Add GOOGLE_PLACES_API_KEY to .env for real data"

	metricsProvider = "google_nearby"
)

// Result is the nearby-businesses response body.
type Result struct {
	Results []model.Business `json:"results"`
	Status  string           `json:"status"`
	Message string           `json:"message,omitempty"`
}

// Finder fans out one nearby search per category.
type Finder struct {
	client        google.Client
	categoryCount int
	radius        int
	perCategory   int
	retry         resilience.RetryConfig
	metrics       *metrics.Metrics
}

// Option configures a Finder.
type Option func(*Finder)

// WithCategoryCount overrides how many leading categories are searched.
func WithCategoryCount(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.categoryCount = min(n, len(Categories))
		}
	}
}

// WithRadius overrides the search radius in meters.
func WithRadius(meters int) Option {
	return func(f *Finder) {
		if meters > 0 {
			f.radius = meters
		}
	}
}

// WithPerCategory overrides how many results are kept per category.
func WithPerCategory(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.perCategory = n
		}
	}
}

// WithRetry sets the retry policy for each category search.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(f *Finder) { f.retry = cfg }
}

// WithMetrics records the fan-out outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Finder) { f.metrics = m }
}

// NewFinder creates a Finder. A nil client makes Find return the sample set.
func NewFinder(client google.Client, opts ...Option) *Finder {
	f := &Finder{
		client:        client,
		categoryCount: DefaultCategoryCount,
		radius:        DefaultRadiusMeters,
		perCategory:   DefaultPerCategory,
		retry:         resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find returns up to perCategory businesses for each searched category,
// flattened in category order and deduplicated by place id. It fails only
// when every category search failed.
func (f *Finder) Find(ctx context.Context, center model.Coordinate) (*Result, error) {
	if !center.Valid() {
		return nil, model.InvalidInput("Invalid latitude or longitude")
	}
	if f.client == nil {
		f.metrics.ObserveProvider(metricsProvider, string(model.OutcomeSkipped), 0, 0)
		return &Result{Results: MockBusinesses(), Status: google.StatusOK, Message: MockMessage}, nil
	}

	categories := Categories[:f.categoryCount]
	perCategory := make([][]google.Place, len(categories))
	errs := make([]error, len(categories))
	loc := google.LatLng{Lat: center.Latitude, Lng: center.Longitude}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			resp, err := resilience.DoVal(gctx, f.retry.WithLogger(metricsProvider, category), func(ctx context.Context) (*google.SearchResponse, error) {
				return f.client.NearbySearch(ctx, google.NearbySearchRequest{Location: loc, Radius: f.radius, Type: category})
			})
			if err != nil {
				zap.L().Warn("places: category search failed", zap.String("category", category), zap.Error(err))
				errs[i] = err
				return nil
			}
			results := resp.Results
			if len(results) > f.perCategory {
				results = results[:f.perCategory]
			}
			perCategory[i] = results
			return nil
		})
	}
	_ = g.Wait()

	var (
		flat   []model.Business
		failed int
	)
	for i, results := range perCategory {
		if errs[i] != nil {
			failed++
			continue
		}
		for _, p := range results {
			flat = append(flat, FromPlace(p))
		}
	}
	elapsed := time.Since(start)

	if failed == len(categories) {
		f.metrics.ObserveProvider(metricsProvider, string(model.OutcomeFailure), 0, elapsed)
		return nil, model.Unavailable("Failed to fetch nearby businesses")
	}

	businesses := dedup.Businesses(flat)
	outcome := model.OutcomeSuccess
	if len(businesses) == 0 {
		outcome = model.OutcomeEmpty
	}
	f.metrics.ObserveProvider(metricsProvider, string(outcome), len(businesses), elapsed)
	zap.L().Info("places: nearby search finished",
		zap.Int("categories", len(categories)),
		zap.Int("failed", failed),
		zap.Int("results", len(businesses)),
		zap.Duration("elapsed", elapsed),
	)

	status := google.StatusOK
	if len(businesses) == 0 {
		status = google.StatusZeroResults
	}
	return &Result{Results: businesses, Status: status}, nil
}

// FromPlace maps a search result to the normalized business record.
func FromPlace(p google.Place) model.Business {
	vicinity := p.Vicinity
	if vicinity == "" {
		vicinity = p.FormattedAddress
	}
	types := p.Types
	if types == nil {
		types = []string{}
	}
	b := model.Business{
		Name:             p.Name,
		Types:            types,
		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingsTotal,
		Vicinity:         vicinity,
		PlaceID:          model.StringOrNil(p.PlaceID),
		PriceLevel:       p.PriceLevel,
		BusinessStatus:   model.ParseBusinessStatus(p.BusinessStatus),
	}
	if p.Geometry != nil {
		b.Geometry = &model.Geometry{Location: &model.LatLng{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng}}
	}
	return b
}

// MockBusinesses is the sample set served when no Places key is configured.
func MockBusinesses() []model.Business {
	return []model.Business{
		{Name: "Sample Restaurant", Types: []string{"restaurant", "food"}, Rating: model.Ptr(4.5), Vicinity: "123 Main St"},
		{Name: "Sample Coffee Shop", Types: []string{"cafe", "food"}, Rating: model.Ptr(4.2), Vicinity: "456 Oak Ave"},
		{Name: "Sample Gym", Types: []string{"gym", "health"}, Rating: model.Ptr(4.7), Vicinity: "789 Pine Rd"},
	}
}
