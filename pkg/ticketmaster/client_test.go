package ticketmaster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsFixture = `{"_embedded":{"events":[{
	"id":"vv1","name":"Padres vs Dodgers","url":"https://www.ticketmaster.com/event/vv1",
	"dates":{"start":{"localDate":"2026-10-25","localTime":"19:10:00","dateTime":"2026-10-26T02:10:00Z"},"status":{"code":"onsale"}},
	"images":[{"url":"https://img.tm/1.jpg","ratio":"16_9","width":1024}],
	"classifications":[{"segment":{"name":"Sports"},"genre":{"name":"Baseball"}}],
	"priceRanges":[{"min":25,"max":180,"currency":"USD"}],
	"_embedded":{
		"venues":[{"name":"Petco Park","address":{"line1":"100 Park Blvd"},"city":{"name":"San Diego"},"state":{"stateCode":"CA"},"postalCode":"92101","location":{"latitude":"32.7073","longitude":"-117.1566"}}],
		"attractions":[{"name":"San Diego Padres","url":"https://www.ticketmaster.com/padres","externalLinks":{"homepage":[{"url":"https://www.mlb.com/padres"}]}}]
	}
}]}}`

func TestSearchEvents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/events.json", r.URL.Path)
		assert.Equal(t, "tm-key", q.Get("apikey"))
		assert.Equal(t, "32.71,-117.16", q.Get("latlong"))
		assert.Equal(t, "17", q.Get("radius"))
		assert.Equal(t, "km", q.Get("unit"))
		_, _ = w.Write([]byte(eventsFixture))
	}))
	defer srv.Close()

	c := NewClient("tm-key", WithBaseURL(srv.URL))
	events, err := c.SearchEvents(context.Background(), SearchRequest{Lat: 32.71, Lng: -117.16, RadiusMeters: 16090})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, StatusOnSale, ev.Dates.Status.Code)
	assert.Equal(t, "2026-10-26T02:10:00Z", ev.Dates.Start.ISO())
	require.NotNil(t, ev.Embedded)

	venue := ev.Embedded.Venues[0]
	assert.Equal(t, "100 Park Blvd, San Diego, CA 92101", venue.FormattedAddress())
	lat, lng, ok := venue.LatLng()
	require.True(t, ok)
	assert.InDelta(t, 32.7073, lat, 0.0001)
	assert.InDelta(t, -117.1566, lng, 0.0001)

	assert.Equal(t, []string{"https://www.ticketmaster.com/padres", "https://www.mlb.com/padres"}, ev.Embedded.Attractions[0].Links())
}

func TestSearchEvents_Empty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"page":{"totalElements":0}}`))
	}))
	defer srv.Close()

	events, err := NewClient("k", WithBaseURL(srv.URL)).SearchEvents(context.Background(), SearchRequest{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSearchEvents_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"fault":{"faultstring":"Invalid ApiKey"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).SearchEvents(context.Background(), SearchRequest{})
	assert.ErrorContains(t, err, "401")
}

func TestDateTime_ISO(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2026-10-25T19:10:00", DateTime{LocalDate: "2026-10-25", LocalTime: "19:10:00"}.ISO())
	assert.Equal(t, "2026-10-25", DateTime{LocalDate: "2026-10-25"}.ISO())
	assert.Empty(t, DateTime{}.ISO())
}

func TestVenue_MissingLocation(t *testing.T) {
	t.Parallel()

	v := Venue{Name: "TBA"}
	_, _, ok := v.LatLng()
	assert.False(t, ok)
	assert.Empty(t, v.FormattedAddress())
}
