package events

import (
	"context"

	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/pkg/meetup"
)

// Meetup searches the Meetup GraphQL API by keyword.
type Meetup struct {
	Client meetup.Client
	// Keyword overrides meetup.DefaultKeyword.
	Keyword string
	Retry   resilience.RetryConfig
}

// Name implements Provider.
func (p *Meetup) Name() string { return SourceMeetup }

// Enabled implements Provider.
func (p *Meetup) Enabled() bool { return p.Client != nil }

// Fetch implements Provider.
func (p *Meetup) Fetch(ctx context.Context, q Query) ([]model.Event, error) {
	found, err := resilience.DoVal(ctx, p.Retry.WithLogger(SourceMeetup, "keyword_search"), func(ctx context.Context) ([]meetup.Event, error) {
		return p.Client.SearchEvents(ctx, meetup.SearchRequest{
			Keyword:  p.Keyword,
			Lat:      q.Center.Latitude,
			Lon:      q.Center.Longitude,
			RadiusKM: q.RadiusKM(),
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(found))
	for _, e := range found {
		ev := mapMeetupEvent(e, q)
		if !MatchesKeywords(ev.Name, ev.Description) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func mapMeetupEvent(e meetup.Event, q Query) model.Event {
	ev := model.Event{
		Name:        e.Title,
		Description: e.Description,
		Start:       model.StringOrNil(e.DateTime),
		End:         model.StringOrNil(e.EndTime),
		URL:         model.StringOrNil(e.EventURL),
		OnlineEvent: e.IsOnline,
		Types:       []string{},
		Attendees:   model.Ptr(e.Going),
		Source:      SourceMeetup,
	}
	if e.Group != nil {
		ev.Group = model.StringOrNil(e.Group.Name)
	}
	if e.Venue != nil {
		ev.Venue = &model.Venue{
			Name:      e.Venue.Name,
			Address:   joinNonEmpty(", ", e.Venue.Address, e.Venue.City),
			Latitude:  coordOr(e.Venue.Lat, q.Center.Latitude),
			Longitude: coordOr(e.Venue.Lon, q.Center.Longitude),
		}
	}
	venueName := ""
	if ev.Venue != nil {
		venueName = ev.Venue.Name
	}
	ev.ID = eventID("meetup-", e.ID, e.Title, e.DateTime, venueName)

	BackfillURL(&ev, nil)
	return ev
}
