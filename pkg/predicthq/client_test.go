package predicthq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaseboost/internal/resilience"
)

func TestSearchEvents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/events/", r.URL.Path)
		assert.Equal(t, "Bearer phq", r.Header.Get("Authorization"))
		assert.Equal(t, "16.09km@32.71,-117.16", q.Get("within"))
		assert.Equal(t, "2026-10-19", q.Get("active.gte"))
		assert.Equal(t, "community,festivals", q.Get("category"))
		assert.Equal(t, "20", q.Get("limit"))

		_, _ = w.Write([]byte(`{"count":1,"results":[{
			"id":"abc123","title":"Little Italy Mercato","category":"community",
			"labels":["food","market"],"rank":62,"phq_attendance":1500,
			"start":"2026-10-24T15:00:00Z","end":"2026-10-24T21:00:00Z",
			"location":[-117.17,32.72],
			"entities":[{"entity_id":"e1","name":"Acme Corp","type":"organization"},
				{"entity_id":"v1","name":"Date Street","type":"venue","formatted_address":"Date St, San Diego, CA"}]
		}]}`))
	}))
	defer srv.Close()

	c := NewClient("phq", WithBaseURL(srv.URL))
	events, err := c.SearchEvents(context.Background(), SearchRequest{
		Lat: 32.71, Lng: -117.16, RadiusMeters: 16090,
		Categories: []string{"community", "festivals"},
		ActiveFrom: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	require.NotNil(t, ev.Rank)
	assert.Equal(t, 62, *ev.Rank)
	lat, lng, ok := ev.LatLng()
	require.True(t, ok)
	assert.InDelta(t, 32.72, lat, 0.0001)
	assert.InDelta(t, -117.17, lng, 0.0001)

	venue := ev.Venue()
	require.NotNil(t, venue)
	assert.Equal(t, "Date Street", venue.Name)
}

func TestSearchEvents_DefaultsAndErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("category"), "community")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("phq", WithBaseURL(srv.URL)).SearchEvents(context.Background(), SearchRequest{})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestEvent_NoLocation(t *testing.T) {
	t.Parallel()

	ev := Event{}
	_, _, ok := ev.LatLng()
	assert.False(t, ok)
	assert.Nil(t, ev.Venue())
}
