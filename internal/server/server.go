// Package server exposes the geocoding, nearby-places, events and
// enrichment operations as a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/leaseboost/internal/enrich"
	"github.com/sells-group/leaseboost/internal/events"
	"github.com/sells-group/leaseboost/internal/metrics"
	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/places"
	"github.com/sells-group/leaseboost/pkg/geocode"
)

// DefaultRadiusMiles is the events search radius when the caller gives none.
const DefaultRadiusMiles = 10

// EventSearcher finds events around a coordinate.
type EventSearcher interface {
	Search(ctx context.Context, q events.Query) (*events.Result, error)
}

// NearbyFinder finds businesses around a coordinate.
type NearbyFinder interface {
	Find(ctx context.Context, center model.Coordinate) (*places.Result, error)
}

// PlaceEnricher attaches Place Details contacts to businesses and venues.
type PlaceEnricher interface {
	Businesses(ctx context.Context, businesses []model.Business, sel enrich.Selection) (*enrich.BusinessResult, error)
	Events(ctx context.Context, evs []model.Event, sel enrich.Selection) (*enrich.EventResult, error)
}

// InstitutionEnricher attaches email contacts to institutions.
type InstitutionEnricher interface {
	Enrich(ctx context.Context, institutions []model.Institution, sel enrich.Selection) (*enrich.InstitutionResult, error)
}

// Deps are the collaborators behind the routes. Every field is optional
// except the ones the served routes need; a nil Metrics records nothing.
type Deps struct {
	Geocoder     geocode.Client
	Events       EventSearcher
	Nearby       NearbyFinder
	Places       PlaceEnricher
	Institutions InstitutionEnricher
	Metrics      *metrics.Metrics

	MapsAPIKey         string
	DefaultRadiusMiles float64
	EnrichLimit        int
	CORSOrigins        []string
	RequestTimeout     time.Duration
}

// Server holds the dependencies shared by all handlers. It keeps no
// per-request state.
type Server struct {
	deps Deps
}

// New creates a Server, filling zero-valued defaults.
func New(deps Deps) *Server {
	if deps.DefaultRadiusMiles <= 0 {
		deps.DefaultRadiusMiles = DefaultRadiusMiles
	}
	if deps.EnrichLimit <= 0 {
		deps.EnrichLimit = enrich.DefaultLimit
	}
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}
	return &Server{deps: deps}
}

// Handler builds the router with its middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if s.deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.deps.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/geocode", s.handleGeocode)
		r.Get("/places/nearby", s.handleNearby)
		r.Get("/events", s.handleEvents)
		r.Post("/businesses/enrich", s.handleEnrichBusinesses)
		r.Post("/events/enrich", s.handleEnrichEvents)
		r.Post("/institutions/enrich", s.handleEnrichInstitutions)
		r.Get("/maps/config", s.handleMapsConfig)
	})

	return r
}
