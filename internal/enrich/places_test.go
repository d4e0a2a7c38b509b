package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/pkg/google"
	"github.com/sells-group/leaseboost/pkg/google/mocks"
)

func business(name, placeID string) model.Business {
	return model.Business{Name: name, PlaceID: model.StringOrNil(placeID)}
}

func detailsOK(name, phone, website string) *google.DetailsResponse {
	return &google.DetailsResponse{Status: google.StatusOK, Result: &google.DetailsResult{
		Name:                 name,
		FormattedPhoneNumber: phone,
		Website:              website,
		FormattedAddress:     "1 Market St, San Diego, CA",
		OpeningHours:         &google.OpeningHours{WeekdayText: []string{"Monday: 9AM-5PM"}},
	}}
}

func TestNewSelection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Selection{Limit: DefaultLimit}, NewSelection(nil, nil))
	five := 5
	assert.Equal(t, Selection{Limit: 5, IDs: []string{"a"}}, NewSelection(&five, []string{"a"}))
}

func TestSelectionPick(t *testing.T) {
	t.Parallel()

	ids := []string{"a", "b", "c", "d"}
	idOf := func(i int) string { return ids[i] }
	eligible := func(i int) bool { return i != 1 }

	tests := []struct {
		name string
		sel  Selection
		want []int
	}{
		{"limit skips ineligible", Selection{Limit: 2}, []int{0, 2}},
		{"zero limit", Selection{Limit: 0}, nil},
		{"limit beyond length", Selection{Limit: 10}, []int{0, 2, 3}},
		{"explicit ids override limit and eligibility", Selection{Limit: 1, IDs: []string{"d", "b"}}, []int{1, 3}},
		{"empty ids select nothing", Selection{Limit: 2, IDs: []string{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.pick(len(ids), idOf, eligible))
		})
	}
}

func TestBusinesses_DefaultLimitAndAdditiveMerge(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("Details", mock.Anything, "p1", google.DetailsFields).Return(detailsOK("Cafe", "(619) 555-0100", ""), nil).Once()
	client.On("Details", mock.Anything, "p3", google.DetailsFields).Return(detailsOK("Gym", "", "https://gym.test"), nil).Once()

	withWebsite := business("Gym", "p3")
	withWebsite.EnrichedContact = &model.EnrichedContact{Website: model.Ptr("https://old.test"), Address: model.Ptr("kept")}

	reachable := business("Bank", "p0")
	reachable.EnrichedContact = &model.EnrichedContact{Phone: model.Ptr("555")}

	input := []model.Business{
		reachable,
		business("Cafe", "p1"),
		business("No id", ""),
		withWebsite,
		business("Bakery", "p4"),
	}

	res, err := NewPlaces(client).Businesses(context.Background(), input, NewSelection(nil, nil))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Enriched)
	assert.Equal(t, 5, res.Total)
	require.NotNil(t, res.Businesses[1].EnrichedContact)
	assert.Equal(t, "(619) 555-0100", *res.Businesses[1].EnrichedContact.Phone)
	assert.Nil(t, res.Businesses[1].EnrichedContact.Website)
	assert.Equal(t, "p1", *res.Businesses[1].EnrichedContact.GooglePlaceID)

	gym := res.Businesses[3].EnrichedContact
	assert.Equal(t, "https://gym.test", *gym.Website)
	assert.Equal(t, "1 Market St, San Diego, CA", *gym.Address)

	assert.Nil(t, res.Businesses[4].EnrichedContact, "limit of 2 must leave the fifth record alone")
	assert.Nil(t, input[1].EnrichedContact, "input slice must not be mutated")
}

func TestBusinesses_ExplicitIDs(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("Details", mock.Anything, "p4", mock.Anything).Return(detailsOK("Bakery", "555-1", ""), nil).Once()

	input := []model.Business{business("Cafe", "p1"), business("Bakery", "p4")}
	res, err := NewPlaces(client).Businesses(context.Background(), input, Selection{Limit: 0, IDs: []string{"p4"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Enriched)
	assert.Nil(t, res.Businesses[0].EnrichedContact)
	assert.NotNil(t, res.Businesses[1].EnrichedContact)
}

func TestBusinesses_LookupFailureLeavesRecord(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("Details", mock.Anything, "p1", mock.Anything).Return(nil, &google.StatusError{Status: "NOT_FOUND"})

	prev := &model.EnrichedContact{Website: model.Ptr("https://keep.test")}
	b := business("Cafe", "p1")
	b.EnrichedContact = prev

	res, err := NewPlaces(client).Businesses(context.Background(), []model.Business{b}, NewSelection(nil, nil))
	require.NoError(t, err)
	assert.Zero(t, res.Enriched)
	assert.Same(t, prev, res.Businesses[0].EnrichedContact)
}

func TestPlaces_NoClient(t *testing.T) {
	t.Parallel()

	_, err := NewPlaces(nil).Businesses(context.Background(), nil, NewSelection(nil, nil))
	require.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	assert.Equal(t, "Google Places API key not configured", model.PublicMessage(err, ""))

	_, err = NewPlaces(nil).Events(context.Background(), nil, NewSelection(nil, nil))
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}

func TestEvents_VenueContact(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)
	client.On("TextSearch", mock.Anything, google.TextSearchRequest{Query: "Balboa Park 1549 El Prado"}).
		Return(&google.SearchResponse{Status: google.StatusOK, Results: []google.Place{{PlaceID: "bp"}}}, nil).Once()
	client.On("Details", mock.Anything, "bp", google.DetailsFields).
		Return(&google.DetailsResponse{Status: google.StatusOK, Result: &google.DetailsResult{InternationalPhoneNumber: "+1 619-239-0512"}}, nil).Once()
	client.On("TextSearch", mock.Anything, google.TextSearchRequest{Query: "Nowhere Hall 0 Void St"}).
		Return(&google.SearchResponse{Status: google.StatusZeroResults}, nil).Once()

	input := []model.Event{
		{ID: "online", Name: "Webinar", OnlineEvent: true},
		{ID: "phq-1", Name: "Fair", Venue: &model.Venue{Name: "Balboa Park", Address: "1549 El Prado"}},
		{ID: "phq-2", Name: "Ghost", Venue: &model.Venue{Name: "Nowhere Hall", Address: "0 Void St"}},
	}

	res, err := NewPlaces(client).Events(context.Background(), input, NewSelection(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Enriched)
	assert.Equal(t, 3, res.Total)
	assert.Nil(t, res.Events[0].VenueContact)

	vc := res.Events[1].VenueContact
	require.NotNil(t, vc)
	assert.Equal(t, "Balboa Park", *vc.Name)
	assert.Equal(t, "1549 El Prado", *vc.Address)
	assert.Equal(t, "+1 619-239-0512", *vc.Phone)
	assert.Equal(t, "bp", *vc.GooglePlaceID)

	assert.Nil(t, res.Events[2].VenueContact)
}
