// Package events aggregates nearby community events from several providers
// into one deduplicated, normalized list.
package events

import (
	"context"

	"github.com/sells-group/leaseboost/internal/model"
)

// Provider names, also used as the response "source" and as metric labels.
const (
	SourceApifyMeetup  = "apify_meetup"
	SourceMeetup       = "meetup"
	SourceFacebook     = "facebook"
	SourcePredictHQ    = "predicthq"
	SourceTicketmaster = "ticketmaster"
	SourceGooglePlaces = "google_places"
	SourceNone         = "none"
)

// Query is the per-request search input.
type Query struct {
	Center       model.Coordinate
	RadiusMeters int
}

// RadiusKM returns the radius in kilometers.
func (q Query) RadiusKM() float64 {
	return float64(q.RadiusMeters) / 1000
}

// Provider fetches events from one upstream and maps them to model.Event.
// A provider without credentials reports Enabled() == false and is skipped.
type Provider interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context, q Query) ([]model.Event, error)
}
