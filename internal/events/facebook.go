package events

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/pkg/facebook"
)

// FacebookQueries are searched in order; results are merged by event id.
var FacebookQueries = []string{
	"farmers market",
	"community event",
	"local festival",
	"street fair",
	"neighborhood event",
}

// Facebook searches Graph API events with several keyword queries.
type Facebook struct {
	Client  facebook.Client
	Queries []string
}

// Name implements Provider.
func (p *Facebook) Name() string { return SourceFacebook }

// Enabled implements Provider.
func (p *Facebook) Enabled() bool { return p.Client != nil }

// Fetch implements Provider. A capability-missing Graph error stops the
// remaining queries since they would fail the same way. The last error is
// returned only when no query produced events.
func (p *Facebook) Fetch(ctx context.Context, q Query) ([]model.Event, error) {
	queries := p.Queries
	if len(queries) == 0 {
		queries = FacebookQueries
	}

	var (
		out     []model.Event
		seen    = make(map[string]struct{})
		lastErr error
	)
	for _, query := range queries {
		found, err := p.Client.SearchEvents(ctx, facebook.SearchRequest{
			Query:          query,
			Lat:            q.Center.Latitude,
			Lng:            q.Center.Longitude,
			DistanceMeters: q.RadiusMeters,
		})
		if err != nil {
			lastErr = err
			var ge *facebook.GraphError
			if errors.As(err, &ge) && ge.CapabilityMissing() {
				zap.L().Info("facebook: app lacks event search capability, skipping remaining queries")
				break
			}
			zap.L().Warn("facebook: query failed", zap.String("query", query), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, e := range found {
			ev := mapFacebookEvent(e, q)
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			seen[ev.ID] = struct{}{}
			out = append(out, ev)
		}
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func mapFacebookEvent(e facebook.Event, q Query) model.Event {
	ev := model.Event{
		Name:        e.Name,
		Description: e.Description,
		Start:       model.StringOrNil(e.StartTime),
		End:         model.StringOrNil(e.EndTime),
		OnlineEvent: e.Place == nil,
		IsFree:      e.IsFree,
		Types:       []string{},
		Source:      SourceFacebook,
	}
	if e.Cover != nil {
		ev.Logo = model.StringOrNil(e.Cover.Source)
	}
	if e.AttendingCount > 0 {
		ev.Attendees = model.Ptr(e.AttendingCount)
	}
	if e.Place != nil {
		venue := &model.Venue{
			Name:      e.Place.Name,
			Latitude:  q.Center.Latitude,
			Longitude: q.Center.Longitude,
		}
		if loc := e.Place.Location; loc != nil {
			venue.Address = joinNonEmpty(", ", loc.Street, loc.City, strings.TrimSpace(loc.State+" "+loc.Zip))
			venue.Latitude = coordOr(loc.Latitude, q.Center.Latitude)
			venue.Longitude = coordOr(loc.Longitude, q.Center.Longitude)
		}
		ev.Venue = venue
	}

	if id := strings.TrimSpace(e.ID); id != "" {
		ev.URL = model.Ptr("https://www.facebook.com/events/" + id)
	}
	venueName := ""
	if ev.Venue != nil {
		venueName = ev.Venue.Name
	}
	ev.ID = eventID("fb-", e.ID, e.Name, e.StartTime, venueName)
	BackfillURL(&ev, nil)
	return ev
}
