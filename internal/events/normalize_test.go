package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaseboost/internal/model"
)

func TestMatchesKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, desc string
		want       bool
	}{
		{"North Park FARMERS Market", "", true},
		{"Book club", "A COMMUNITY gathering", true},
		{"Startup pitch night", "Investors and founders", false},
		{"Straßenfest", "Local vendors", true},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesKeywords(tt.name, tt.desc), "%q / %q", tt.name, tt.desc)
	}
}

func TestStableID(t *testing.T) {
	t.Parallel()

	a := StableID("Harvest Fair", "2026-10-25T10:00:00", "Balboa Park")
	b := StableID("harvest fair ", "2026-10-25T10:00:00", "BALBOA PARK")
	c := StableID("Harvest Fair", "2026-10-26T10:00:00", "Balboa Park")

	assert.Equal(t, a, b, "ids must be stable across case and whitespace")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestSearchURL(t *testing.T) {
	t.Parallel()

	u := SearchURL("Harvest Fair", "Balboa Park", "2026-10-25T10:00:00Z")
	require.NotNil(t, u)
	assert.Equal(t, "https://www.google.com/search?q=Harvest+Fair+Balboa+Park+2026-10-25", *u)

	u = SearchURL("Harvest Fair", "", "")
	require.NotNil(t, u)
	assert.Equal(t, "https://www.google.com/search?q=Harvest+Fair", *u)

	assert.Nil(t, SearchURL("  ", "Balboa Park", "2026-10-25"))
}

func TestBackfillURL(t *testing.T) {
	t.Parallel()

	t.Run("keeps direct url", func(t *testing.T) {
		ev := model.Event{Name: "x", URL: model.Ptr("https://direct.test/e")}
		BackfillURL(&ev, []string{"https://other.test"})
		assert.Equal(t, "https://direct.test/e", *ev.URL)
	})

	t.Run("first external related link", func(t *testing.T) {
		ev := model.Event{Name: "Padres"}
		BackfillURL(&ev, []string{
			"https://www.ticketmaster.com/padres",
			"not a url",
			"https://www.mlb.com/padres",
		}, "ticketmaster.com")
		require.NotNil(t, ev.URL)
		assert.Equal(t, "https://www.mlb.com/padres", *ev.URL)
	})

	t.Run("search url from title venue date", func(t *testing.T) {
		ev := model.Event{
			Name:  "Harvest Fair",
			Start: model.Ptr("2026-10-25T10:00:00Z"),
			Venue: &model.Venue{Name: "Balboa Park"},
			URL:   model.Ptr(""),
		}
		BackfillURL(&ev, []string{"https://sub.ticketmaster.com/x"}, "ticketmaster.com")
		require.NotNil(t, ev.URL)
		assert.Contains(t, *ev.URL, "q=Harvest+Fair+Balboa+Park+2026-10-25")
	})

	t.Run("no title stays nil", func(t *testing.T) {
		ev := model.Event{}
		BackfillURL(&ev, nil)
		assert.Nil(t, ev.URL)
	})
}
