package events

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/pkg/apify"
	"github.com/sells-group/leaseboost/pkg/geocode"
)

// DefaultMeetupActor is the Apify actor that scrapes public Meetup listings.
const DefaultMeetupActor = "filip_cicvarek~meetup-scraper"

// ApifyMeetup runs the Meetup scraper actor for the city around the query
// point and waits for its dataset.
type ApifyMeetup struct {
	Client    apify.Client
	Reverser  geocode.Reverser
	ActorID   string
	MaxEvents int
	PollOpts  []apify.PollOption
}

// Name implements Provider.
func (p *ApifyMeetup) Name() string { return SourceApifyMeetup }

// Enabled implements Provider. The actor needs both the Apify token and a
// reverse geocoder to name the city.
func (p *ApifyMeetup) Enabled() bool { return p.Client != nil && p.Reverser != nil }

type apifyActorInput struct {
	StartURLs []apifyStartURL `json:"startUrls"`
	MaxEvents int             `json:"maxEvents"`
}

type apifyStartURL struct {
	URL string `json:"url"`
}

// apifyItem is one dataset item. The scraper's field names vary between
// versions, so several aliases are accepted.
type apifyItem struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	EventURL    string      `json:"eventUrl"`
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	DateTime    string      `json:"dateTime"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	Venue       *apifyVenue `json:"venue"`
	Location    string      `json:"location"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	IsOnline    bool        `json:"isOnline"`
	Image       string      `json:"image"`
	Going       *int        `json:"going"`
	GroupName   string      `json:"groupName"`
}

type apifyVenue struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// Fetch implements Provider.
func (p *ApifyMeetup) Fetch(ctx context.Context, q Query) ([]model.Event, error) {
	loc, err := p.Reverser.Locality(ctx, q.Center.Latitude, q.Center.Longitude)
	if err != nil {
		return nil, eris.Wrap(err, "apify meetup: reverse geocode")
	}
	if loc == nil {
		zap.L().Debug("apify meetup: no city for point", zap.Float64("lat", q.Center.Latitude), zap.Float64("lng", q.Center.Longitude))
		return nil, nil
	}

	actor := p.ActorID
	if actor == "" {
		actor = DefaultMeetupActor
	}
	maxEvents := p.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}

	run, err := p.Client.RunActor(ctx, actor, apifyActorInput{
		StartURLs: []apifyStartURL{{URL: meetupFindURL(loc.String(), q.RadiusKM())}},
		MaxEvents: maxEvents,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("apify meetup: run started", zap.String("run_id", run.ID), zap.String("locality", loc.String()))

	done, err := apify.PollRun(ctx, p.Client, run.ID, p.PollOpts...)
	if err != nil {
		return nil, err
	}

	items, err := p.Client.DatasetItems(ctx, done.DefaultDatasetID)
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(items))
	for _, raw := range items {
		var item apifyItem
		if err := json.Unmarshal(raw, &item); err != nil {
			zap.L().Debug("apify meetup: skip malformed item", zap.Error(err))
			continue
		}
		ev := mapApifyItem(item, q)
		if !MatchesKeywords(ev.Name, ev.Description) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func meetupFindURL(locality string, radiusKM float64) string {
	params := url.Values{
		"allMeetups":   {"false"},
		"radius":       {strconv.FormatFloat(radiusKM, 'f', -1, 64)},
		"userFreeform": {locality},
		"eventType":    {"upcoming"},
	}
	return "https://www.meetup.com/find/events/?" + params.Encode()
}

func mapApifyItem(item apifyItem, q Query) model.Event {
	name := item.Name
	if name == "" {
		name = item.Title
	}
	start := item.DateTime
	if start == "" {
		start = item.StartTime
	}
	link := item.URL
	if link == "" {
		link = item.EventURL
	}

	ev := model.Event{
		Name:        name,
		Description: item.Description,
		Start:       model.StringOrNil(start),
		End:         model.StringOrNil(item.EndTime),
		URL:         model.StringOrNil(link),
		OnlineEvent: item.IsOnline,
		Logo:        model.StringOrNil(item.Image),
		Group:       model.StringOrNil(item.GroupName),
		Types:       []string{},
		Source:      SourceApifyMeetup,
	}
	if item.Going != nil {
		ev.Attendees = model.Ptr(*item.Going)
	}

	venueName := ""
	switch {
	case item.Venue != nil:
		venueName = item.Venue.Name
		address := item.Venue.Address
		if address == "" {
			address = item.Location
		}
		ev.Venue = &model.Venue{
			Name:      item.Venue.Name,
			Address:   address,
			Latitude:  coordOr(item.Venue.Lat, coordOr(item.Latitude, q.Center.Latitude)),
			Longitude: coordOr(item.Venue.Lon, coordOr(item.Longitude, q.Center.Longitude)),
		}
	case item.Location != "" || (item.Latitude != nil && item.Longitude != nil):
		ev.Venue = &model.Venue{
			Address:   item.Location,
			Latitude:  coordOr(item.Latitude, q.Center.Latitude),
			Longitude: coordOr(item.Longitude, q.Center.Longitude),
		}
	}

	switch {
	case strings.TrimSpace(item.ID) != "":
		ev.ID = "apify-" + strings.TrimSpace(item.ID)
	case link != "":
		ev.ID = "apify-" + StableID(link)
	default:
		ev.ID = "apify-" + StableID(name, start, venueName)
	}

	BackfillURL(&ev, nil)
	return ev
}
