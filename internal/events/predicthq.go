package events

import (
	"context"

	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/pkg/predicthq"
)

// PredictHQ searches the PredictHQ aggregator.
type PredictHQ struct {
	Client     predicthq.Client
	Categories []string
	Limit      int
	Retry      resilience.RetryConfig
}

// Name implements Provider.
func (p *PredictHQ) Name() string { return SourcePredictHQ }

// Enabled implements Provider.
func (p *PredictHQ) Enabled() bool { return p.Client != nil }

// Fetch implements Provider.
func (p *PredictHQ) Fetch(ctx context.Context, q Query) ([]model.Event, error) {
	found, err := resilience.DoVal(ctx, p.Retry.WithLogger(SourcePredictHQ, "search"), func(ctx context.Context) ([]predicthq.Event, error) {
		return p.Client.SearchEvents(ctx, predicthq.SearchRequest{
			Lat:          q.Center.Latitude,
			Lng:          q.Center.Longitude,
			RadiusMeters: q.RadiusMeters,
			Categories:   p.Categories,
			Limit:        p.Limit,
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(found))
	for _, e := range found {
		out = append(out, mapPredictHQEvent(e, q))
	}
	return out, nil
}

func mapPredictHQEvent(e predicthq.Event, q Query) model.Event {
	types := make([]string, 0, 1+len(e.Labels))
	if e.Category != "" {
		types = append(types, e.Category)
	}
	types = append(types, e.Labels...)

	ev := model.Event{
		Name:        e.Title,
		Description: e.Description,
		Start:       model.StringOrNil(e.Start),
		End:         model.StringOrNil(e.End),
		Types:       types,
		Source:      SourcePredictHQ,
	}
	if e.Rank != nil {
		ev.Rating = model.Ptr(float64(*e.Rank) / 20)
	}
	if e.PhqAttendance != nil {
		ev.Attendees = model.Ptr(*e.PhqAttendance)
	}

	lat, lng, hasPoint := e.LatLng()
	if !hasPoint {
		lat, lng = q.Center.Latitude, q.Center.Longitude
	}
	venue := e.Venue()
	address := ""
	if e.Geo != nil && e.Geo.Address != nil {
		address = e.Geo.Address.FormattedAddress
	}
	switch {
	case venue != nil:
		if venue.FormattedAddress != "" {
			address = venue.FormattedAddress
		}
		ev.Venue = &model.Venue{Name: venue.Name, Address: address, Latitude: lat, Longitude: lng}
	case hasPoint || address != "":
		ev.Venue = &model.Venue{Address: address, Latitude: lat, Longitude: lng}
	default:
		ev.OnlineEvent = true
	}

	venueName := ""
	if ev.Venue != nil {
		venueName = ev.Venue.Name
	}
	ev.ID = eventID("phq-", e.ID, e.Title, e.Start, venueName)

	BackfillURL(&ev, nil)
	return ev
}
