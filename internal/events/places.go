package events

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/pkg/google"
)

// PlacesQueries are the text searches used to find event-like venues.
var PlacesQueries = []string{
	"farmers market",
	"farmers markets",
	"community center",
	"community centers",
	"outdoor market",
	"street market",
	"flea market",
	"artisan market",
	"local festival",
	"community park",
	"event venue",
	"event space",
	"community hall",
	"recreation center",
	"civic center",
}

var (
	eventPlaceTypes = []string{
		"park", "community_center", "establishment", "point_of_interest", "store",
		"food", "market", "shopping_mall", "civic_building", "local_government_office",
	}
	eventQueryWords = []string{"market", "community", "festival", "venue", "center", "hall", "park"}
	eventNameWords  = []string{"market", "festival", "fair", "community", "center", "hall", "venue", "park", "recreation", "civic"}
)

// GooglePlaces treats community venues found by text search as standing
// events. It is the last-resort provider.
type GooglePlaces struct {
	Client google.Client
	// APIKey is only used to build photo URLs.
	APIKey  string
	Queries []string
	Retry   resilience.RetryConfig
}

// Name implements Provider.
func (p *GooglePlaces) Name() string { return SourceGooglePlaces }

// Enabled implements Provider.
func (p *GooglePlaces) Enabled() bool { return p.Client != nil }

// Fetch implements Provider. Queries run concurrently; results are merged in
// query order and the first occurrence of a place wins.
func (p *GooglePlaces) Fetch(ctx context.Context, q Query) ([]model.Event, error) {
	queries := p.Queries
	if len(queries) == 0 {
		queries = PlacesQueries
	}

	results := make([][]google.Place, len(queries))
	errs := make([]error, len(queries))
	center := google.LatLng{Lat: q.Center.Latitude, Lng: q.Center.Longitude}

	g, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			resp, err := resilience.DoVal(gctx, p.Retry.WithLogger(SourceGooglePlaces, "text_search"), func(ctx context.Context) (*google.SearchResponse, error) {
				return p.Client.TextSearch(ctx, google.TextSearchRequest{Query: query, Location: &center, Radius: q.RadiusMeters})
			})
			if err != nil {
				zap.L().Warn("google places: query failed", zap.String("query", query), zap.Error(err))
				errs[i] = err
				return nil
			}
			results[i] = resp.Results
			return nil
		})
	}
	_ = g.Wait()

	var (
		out    []model.Event
		seen   = make(map[string]struct{})
		failed int
	)
	for i, places := range results {
		if errs[i] != nil {
			failed++
			continue
		}
		for _, place := range places {
			if place.PlaceID == "" {
				continue
			}
			if _, dup := seen[place.PlaceID]; dup {
				continue
			}
			if !isEventLikePlace(place, queries[i]) {
				continue
			}
			seen[place.PlaceID] = struct{}{}
			out = append(out, p.mapPlace(place, q))
		}
	}

	if failed == len(queries) {
		return nil, errs[0]
	}
	return out, nil
}

func isEventLikePlace(place google.Place, query string) bool {
	for _, t := range place.Types {
		if slices.Contains(eventPlaceTypes, t) {
			return true
		}
	}
	query = folder.String(query)
	for _, w := range eventQueryWords {
		if strings.Contains(query, w) {
			return true
		}
	}
	name := folder.String(place.Name)
	for _, w := range eventNameWords {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

func (p *GooglePlaces) mapPlace(place google.Place, q Query) model.Event {
	description := place.FormattedAddress
	if description == "" {
		description = place.Vicinity
	}
	address := place.Vicinity
	if address == "" {
		address = place.FormattedAddress
	}
	lat, lng := q.Center.Latitude, q.Center.Longitude
	if place.Geometry != nil {
		lat, lng = place.Geometry.Location.Lat, place.Geometry.Location.Lng
	}

	types := place.Types
	if types == nil {
		types = []string{}
	}
	ev := model.Event{
		ID:          "gplaces-" + place.PlaceID,
		Name:        place.Name,
		Description: description,
		URL:         model.StringOrNil(place.URL),
		Venue:       &model.Venue{Name: place.Name, Address: address, Latitude: lat, Longitude: lng},
		Rating:      place.Rating,
		Types:       types,
		Source:      SourceGooglePlaces,
	}
	if len(place.Photos) > 0 && p.APIKey != "" {
		ev.Logo = model.Ptr(google.PhotoURL(p.APIKey, place.Photos[0].PhotoReference, 400))
	}
	BackfillURL(&ev, nil)
	return ev
}
