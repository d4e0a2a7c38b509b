package events

import (
	"context"
	"strings"

	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/pkg/ticketmaster"
)

// ticketmasterHosts are provider-owned sites that never count as an external
// event link.
var ticketmasterHosts = []string{"ticketmaster.com", "livenation.com", "universe.com", "frontgatetickets.com"}

// Ticketmaster searches the Ticketmaster Discovery API.
type Ticketmaster struct {
	Client ticketmaster.Client
	Size   int
	Retry  resilience.RetryConfig
}

// Name implements Provider.
func (p *Ticketmaster) Name() string { return SourceTicketmaster }

// Enabled implements Provider.
func (p *Ticketmaster) Enabled() bool { return p.Client != nil }

// Fetch implements Provider.
func (p *Ticketmaster) Fetch(ctx context.Context, q Query) ([]model.Event, error) {
	found, err := resilience.DoVal(ctx, p.Retry.WithLogger(SourceTicketmaster, "discovery"), func(ctx context.Context) ([]ticketmaster.Event, error) {
		return p.Client.SearchEvents(ctx, ticketmaster.SearchRequest{
			Lat:          q.Center.Latitude,
			Lng:          q.Center.Longitude,
			RadiusMeters: q.RadiusMeters,
			Size:         p.Size,
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(found))
	for _, e := range found {
		out = append(out, mapTicketmasterEvent(e, q))
	}
	return out, nil
}

func mapTicketmasterEvent(e ticketmaster.Event, q Query) model.Event {
	description := e.Info
	if description == "" {
		description = e.PleaseNote
	}

	ev := model.Event{
		Name:        e.Name,
		Description: description,
		Start:       model.StringOrNil(e.Dates.Start.ISO()),
		End:         model.StringOrNil(e.Dates.End.ISO()),
		URL:         model.StringOrNil(e.URL),
		IsFree:      ticketmasterIsFree(e.PriceRanges),
		Logo:        ticketmasterLogo(e.Images),
		Types:       ticketmasterTypes(e.Classifications),
		Source:      SourceTicketmaster,
	}
	if code := e.Dates.Status.Code; code != "" {
		ev.HasAvailableTickets = model.Ptr(code == ticketmaster.StatusOnSale)
	}

	var related []string
	if e.Embedded != nil {
		if len(e.Embedded.Venues) > 0 {
			v := e.Embedded.Venues[0]
			lat, lng, ok := v.LatLng()
			if !ok {
				lat, lng = q.Center.Latitude, q.Center.Longitude
			}
			ev.Venue = &model.Venue{Name: v.Name, Address: v.FormattedAddress(), Latitude: lat, Longitude: lng}
		}
		for i := range e.Embedded.Attractions {
			related = append(related, e.Embedded.Attractions[i].Links()...)
		}
	}

	venueName := ""
	if ev.Venue != nil {
		venueName = ev.Venue.Name
	}
	ev.ID = eventID("tm-", e.ID, e.Name, e.Dates.Start.ISO(), venueName)

	BackfillURL(&ev, related, ticketmasterHosts...)
	return ev
}

func ticketmasterIsFree(ranges []ticketmaster.PriceRange) *bool {
	if len(ranges) == 0 {
		return nil
	}
	for _, r := range ranges {
		if r.Min > 0 || r.Max > 0 {
			return model.Ptr(false)
		}
	}
	return model.Ptr(true)
}

// ticketmasterLogo picks the widest 16:9 image, or the first image.
func ticketmasterLogo(images []ticketmaster.Image) *string {
	if len(images) == 0 {
		return nil
	}
	best := -1
	for i, img := range images {
		if img.Ratio == "16_9" && (best < 0 || img.Width > images[best].Width) {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	return model.StringOrNil(images[best].URL)
}

func ticketmasterTypes(cs []ticketmaster.Classification) []string {
	types := []string{}
	seen := make(map[string]bool)
	add := func(n *ticketmaster.Named) {
		if n == nil {
			return
		}
		name := strings.ToLower(strings.TrimSpace(n.Name))
		if name == "" || name == "undefined" || seen[name] {
			return
		}
		seen[name] = true
		types = append(types, name)
	}
	for i := range cs {
		add(cs[i].Segment)
		add(cs[i].Genre)
	}
	return types
}
