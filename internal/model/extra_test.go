package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessJSON_PassthroughFieldsSurvive(t *testing.T) {
	t.Parallel()

	in := `{"name":"Cafe","types":["cafe"],"rating":4.2,"placeId":"p1","distance":0.4,"category":"food"}`

	var b Business
	require.NoError(t, json.Unmarshal([]byte(in), &b))
	assert.Equal(t, "Cafe", b.Name)
	require.NotNil(t, b.PlaceID)
	assert.Equal(t, "p1", *b.PlaceID)
	assert.Len(t, b.Extra, 2)

	out, err := json.Marshal(b)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.InDelta(t, 0.4, m["distance"], 0.0001)
	assert.Equal(t, "food", m["category"])
	assert.Nil(t, m["priceLevel"])
	assert.Contains(t, m, "businessStatus")
	assert.NotContains(t, m, "enrichedContact")
}

func TestEventJSON_ModeledFieldWinsOverExtra(t *testing.T) {
	t.Parallel()

	e := Event{
		ID:    "phq-1",
		Name:  "Farmers Market",
		Extra: map[string]json.RawMessage{"name": json.RawMessage(`"shadow"`), "color": json.RawMessage(`"red"`)},
	}
	out, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "Farmers Market", m["name"])
	assert.Equal(t, "red", m["color"])
	assert.Equal(t, []any{}, m["types"])
	assert.NotContains(t, m, "Source")
}

func TestParseBusinessStatus(t *testing.T) {
	t.Parallel()

	require.NotNil(t, ParseBusinessStatus("operational"))
	assert.Equal(t, BusinessOperational, *ParseBusinessStatus("operational"))
	assert.Equal(t, BusinessClosedPermanently, *ParseBusinessStatus("CLOSED_PERMANENTLY"))
	assert.Nil(t, ParseBusinessStatus(""))
	assert.Nil(t, ParseBusinessStatus("MAYBE"))
}

func TestBusinessJSON_ExtraIgnoresCaseVariantsOfModeledFields(t *testing.T) {
	t.Parallel()

	var b Business
	require.NoError(t, json.Unmarshal([]byte(`{"Name":"Cafe","PlaceId":"p1","Category":"food"}`), &b))
	assert.Equal(t, "Cafe", b.Name)
	require.NotNil(t, b.PlaceID)
	assert.Equal(t, "p1", *b.PlaceID)
	assert.Equal(t, map[string]json.RawMessage{"Category": json.RawMessage(`"food"`)}, b.Extra)

	out, err := json.Marshal(b)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "Cafe", m["name"])
	assert.NotContains(t, m, "Name")
	assert.NotContains(t, m, "PlaceId")
	assert.Equal(t, "food", m["Category"])
}
