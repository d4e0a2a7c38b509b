package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leaseboost/internal/config"
	"github.com/sells-group/leaseboost/internal/enrich"
	"github.com/sells-group/leaseboost/internal/events"
	"github.com/sells-group/leaseboost/internal/metrics"
	"github.com/sells-group/leaseboost/internal/places"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/internal/server"
	"github.com/sells-group/leaseboost/pkg/apify"
	"github.com/sells-group/leaseboost/pkg/facebook"
	"github.com/sells-group/leaseboost/pkg/geocode"
	"github.com/sells-group/leaseboost/pkg/google"
	"github.com/sells-group/leaseboost/pkg/hunter"
	"github.com/sells-group/leaseboost/pkg/meetup"
	"github.com/sells-group/leaseboost/pkg/predicthq"
	"github.com/sells-group/leaseboost/pkg/ticketmaster"
)

// appEnv holds every initialized client and orchestrator needed by the
// serve, geocode, events and nearby commands.
type appEnv struct {
	Geocoder     geocode.Client
	Events       *events.Orchestrator
	Nearby       *places.Finder
	Places       *enrich.Places
	Institutions *enrich.Institutions
	Metrics      *metrics.Metrics
}

// initApp builds the clients from c. Providers whose credential is empty
// stay nil and report themselves disabled.
func initApp(c *config.Config) (*appEnv, error) {
	retry := resilience.FromSettings(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)
	m := metrics.New()

	googleClient := newGoogle(c.Google)

	domains := enrich.DefaultDomains()
	if c.Enrich.DomainsFile != "" {
		extra, err := enrich.LoadDomains(c.Enrich.DomainsFile)
		if err != nil {
			return nil, eris.Wrap(err, "load institution domains")
		}
		domains.Merge(extra)
	}

	env := &appEnv{
		Geocoder: newGeocoder(c.Nominatim),
		Events:   newOrchestrator(c, googleClient, retry, m),
		Nearby: places.NewFinder(googleClient,
			places.WithCategoryCount(c.Places.CategoryCount),
			places.WithRadius(c.Places.RadiusMeters),
			places.WithPerCategory(c.Places.PerCategory),
			places.WithRetry(retry),
			places.WithMetrics(m),
		),
		Places: enrich.NewPlaces(googleClient,
			enrich.WithPlacesRetry(retry),
			enrich.WithPlacesMetrics(m),
		),
		Institutions: enrich.NewInstitutions(newHunter(c.Hunter),
			enrich.WithDomains(domains),
			enrich.WithInstitutionsRetry(retry),
			enrich.WithInstitutionsMetrics(m),
		),
		Metrics: m,
	}

	zap.L().Info("providers configured",
		zap.Bool("google_places", googleClient != nil),
		zap.Bool("apify", c.Apify.APIToken != ""),
		zap.Bool("meetup", c.Meetup.APIKey != ""),
		zap.Bool("facebook", c.Facebook.AccessToken != ""),
		zap.Bool("predicthq", c.PredictHQ.APIToken != ""),
		zap.Bool("ticketmaster", c.Ticketmaster.APIKey != ""),
		zap.Bool("hunter", c.Hunter.APIKey != ""),
		zap.Int("institution_domains", domains.Len()),
	)
	return env, nil
}

// serverDeps maps the environment onto the HTTP layer.
func (e *appEnv) serverDeps(c *config.Config) server.Deps {
	return server.Deps{
		Geocoder:           e.Geocoder,
		Events:             e.Events,
		Nearby:             e.Nearby,
		Places:             e.Places,
		Institutions:       e.Institutions,
		Metrics:            e.Metrics,
		MapsAPIKey:         c.Google.MapsAPIKey,
		DefaultRadiusMiles: c.Events.DefaultRadiusMiles,
		EnrichLimit:        c.Enrich.DefaultLimit,
		CORSOrigins:        c.Server.CORSOrigins,
		RequestTimeout:     time.Duration(c.Server.RequestTimeoutSecs) * time.Second,
	}
}

// newOrchestrator wires the event providers in priority order, with the
// Places heuristic as the only fallback.
func newOrchestrator(c *config.Config, googleClient google.Client, retry resilience.RetryConfig, m *metrics.Metrics) *events.Orchestrator {
	apifyProvider := &events.ApifyMeetup{
		ActorID:   c.Apify.ActorID,
		MaxEvents: c.Apify.MaxEvents,
		PollOpts: []apify.PollOption{
			apify.WithPollInterval(time.Duration(c.Apify.PollIntervalMs) * time.Millisecond),
			apify.WithMaxAttempts(c.Apify.PollMaxAttempts),
		},
	}
	if c.Apify.APIToken != "" {
		var opts []apify.Option
		if c.Apify.BaseURL != "" {
			opts = append(opts, apify.WithBaseURL(c.Apify.BaseURL))
		}
		apifyProvider.Client = apify.NewClient(c.Apify.APIToken, opts...)
	}
	if c.Google.PlacesAPIKey != "" {
		apifyProvider.Reverser = geocode.NewGoogleReverse(c.Google.PlacesAPIKey)
	}

	meetupProvider := &events.Meetup{Keyword: c.Meetup.Keyword, Retry: retry}
	if c.Meetup.APIKey != "" {
		var opts []meetup.Option
		if c.Meetup.BaseURL != "" {
			opts = append(opts, meetup.WithBaseURL(c.Meetup.BaseURL))
		}
		meetupProvider.Client = meetup.NewClient(c.Meetup.APIKey, opts...)
	}

	facebookProvider := &events.Facebook{Queries: c.Facebook.Queries}
	if c.Facebook.AccessToken != "" {
		var opts []facebook.Option
		if c.Facebook.BaseURL != "" {
			opts = append(opts, facebook.WithBaseURL(c.Facebook.BaseURL))
		}
		facebookProvider.Client = facebook.NewClient(c.Facebook.AccessToken, opts...)
	}

	predictProvider := &events.PredictHQ{Categories: c.PredictHQ.Categories, Limit: c.PredictHQ.Limit, Retry: retry}
	if c.PredictHQ.APIToken != "" {
		var opts []predicthq.Option
		if c.PredictHQ.BaseURL != "" {
			opts = append(opts, predicthq.WithBaseURL(c.PredictHQ.BaseURL))
		}
		predictProvider.Client = predicthq.NewClient(c.PredictHQ.APIToken, opts...)
	}

	ticketProvider := &events.Ticketmaster{Size: c.Ticketmaster.Size, Retry: retry}
	if c.Ticketmaster.APIKey != "" {
		var opts []ticketmaster.Option
		if c.Ticketmaster.BaseURL != "" {
			opts = append(opts, ticketmaster.WithBaseURL(c.Ticketmaster.BaseURL))
		}
		ticketProvider.Client = ticketmaster.NewClient(c.Ticketmaster.APIKey, opts...)
	}

	placesProvider := &events.GooglePlaces{Client: googleClient, APIKey: c.Google.PlacesAPIKey, Retry: retry}

	return events.NewOrchestrator(
		[]events.Provider{apifyProvider, meetupProvider, facebookProvider, predictProvider, ticketProvider},
		events.WithFallback(placesProvider),
		events.WithMaxResults(c.Events.MaxResults),
		events.WithMetrics(m),
	)
}

// newGoogle returns nil when no Places key is configured so callers can
// take their no-credential path.
func newGoogle(c config.GoogleConfig) google.Client {
	if c.PlacesAPIKey == "" {
		return nil
	}
	opts := []google.Option{google.WithRateLimit(c.RateLimitRPS)}
	if c.BaseURL != "" {
		opts = append(opts, google.WithBaseURL(c.BaseURL))
	}
	return google.NewClient(c.PlacesAPIKey, opts...)
}

func newHunter(c config.HunterConfig) hunter.Client {
	if c.APIKey == "" {
		return nil
	}
	var opts []hunter.Option
	if c.BaseURL != "" {
		opts = append(opts, hunter.WithBaseURL(c.BaseURL))
	}
	return hunter.NewClient(c.APIKey, opts...)
}

func newGeocoder(c config.NominatimConfig) geocode.Client {
	opts := []geocode.Option{
		geocode.WithUserAgent(c.UserAgent),
		geocode.WithRateLimit(c.RateLimitRPS),
	}
	if c.BaseURL != "" {
		opts = append(opts, geocode.WithBaseURL(c.BaseURL))
	}
	return geocode.NewClient(opts...)
}
