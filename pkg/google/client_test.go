package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaseboost/internal/resilience"
)

func TestNearbySearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "32.71,-117.16", q.Get("location"))
		assert.Equal(t, "2000", q.Get("radius"))
		assert.Equal(t, "cafe", q.Get("type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"place_id": "ChIJ-cafe",
				"name": "Bean There",
				"types": ["cafe", "food"],
				"rating": 4.4,
				"user_ratings_total": 210,
				"vicinity": "1 Market St",
				"price_level": 2,
				"business_status": "OPERATIONAL",
				"geometry": {"location": {"lat": 32.711, "lng": -117.161}}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{
		Location: LatLng{Lat: 32.71, Lng: -117.16},
		Radius:   2000,
		Type:     "cafe",
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	p := resp.Results[0]
	assert.Equal(t, "ChIJ-cafe", p.PlaceID)
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.4, *p.Rating, 0.001)
	require.NotNil(t, p.UserRatingsTotal)
	assert.Equal(t, 210, *p.UserRatingsTotal)
	require.NotNil(t, p.Geometry)
	assert.InDelta(t, 32.711, p.Geometry.Location.Lat, 0.0001)
}

func TestNearbySearch_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{Radius: 100})

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, StatusZeroResults, resp.Status)
}

func TestNearbySearch_RequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{})

	assert.Nil(t, resp)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "REQUEST_DENIED", statusErr.Status)
	assert.False(t, resilience.IsTransient(err))
}

func TestTextSearch_LocationBias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/textsearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "farmers market", q.Get("query"))
		assert.Equal(t, "16090", q.Get("radius"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"place_id":"m1","name":"Little Italy Mercato"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{
		Query:    "farmers market",
		Location: &LatLng{Lat: 32.7, Lng: -117.1},
		Radius:   16090,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Little Italy Mercato", resp.Results[0].Name)
}

func TestTextSearch_NoLocationOmitsRadius(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("location"))
		assert.Empty(t, r.URL.Query().Get("radius"))
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "Petco Park 100 Park Blvd", Radius: 500})
	require.NoError(t, err)
}

func TestDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/details/json", r.URL.Path)
		assert.Equal(t, "ChIJ-1", r.URL.Query().Get("place_id"))
		assert.Contains(t, r.URL.Query().Get("fields"), "formatted_phone_number")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"name": "Bean There",
				"international_phone_number": "+1 619-555-0100",
				"website": "https://beanthere.test",
				"formatted_address": "1 Market St, San Diego, CA 92101",
				"opening_hours": {"weekday_text": ["Monday: 7:00 AM - 5:00 PM"]}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Details(context.Background(), "ChIJ-1", nil)

	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "+1 619-555-0100", resp.Result.Phone())
	assert.Equal(t, "https://beanthere.test", resp.Result.Website)
	require.NotNil(t, resp.Result.OpeningHours)
	assert.Len(t, resp.Result.OpeningHours.WeekdayText, 1)
}

func TestDetails_EmptyPlaceID(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.Details(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestGet_TransientHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.NearbySearch(context.Background(), NearbySearchRequest{})

	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "503")
}

func TestGet_OverQueryLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "x"})
	assert.True(t, resilience.IsTransient(err))
}

func TestContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(ctx, NearbySearchRequest{})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestPhotoURL(t *testing.T) {
	u := PhotoURL("k", "ref-1", 400)
	assert.Contains(t, u, "/place/photo?")
	assert.Contains(t, u, "maxwidth=400")
	assert.Contains(t, u, "photo_reference=ref-1")
}
