package model

import (
	"encoding/json"
	"strings"
)

// BusinessStatus is the operating state reported by the places provider.
type BusinessStatus string

const (
	BusinessOperational       BusinessStatus = "OPERATIONAL"
	BusinessClosedTemporarily BusinessStatus = "CLOSED_TEMPORARILY"
	BusinessClosedPermanently BusinessStatus = "CLOSED_PERMANENTLY"
)

// ParseBusinessStatus maps a provider status to a known value. Unknown or
// empty input yields nil.
func ParseBusinessStatus(s string) *BusinessStatus {
	switch st := BusinessStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case BusinessOperational, BusinessClosedTemporarily, BusinessClosedPermanently:
		return &st
	default:
		return nil
	}
}

// LatLng is a bare coordinate pair in the places provider's shape.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps the place location.
type Geometry struct {
	Location *LatLng `json:"location"`
}

// Business is the provider-agnostic nearby-place record.
type Business struct {
	Name             string           `json:"name"`
	Types            []string         `json:"types"`
	Rating           *float64         `json:"rating"`
	UserRatingsTotal *int             `json:"userRatingsTotal"`
	Vicinity         string           `json:"vicinity"`
	PlaceID          *string          `json:"placeId"`
	PriceLevel       *int             `json:"priceLevel"`
	BusinessStatus   *BusinessStatus  `json:"businessStatus"`
	Geometry         *Geometry        `json:"geometry"`
	EnrichedContact  *EnrichedContact `json:"enrichedContact,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type businessJSON Business

// UnmarshalJSON keeps unknown fields in Extra.
func (b *Business) UnmarshalJSON(data []byte) error {
	var aux businessJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	extra, err := splitExtra(data, aux)
	if err != nil {
		return err
	}
	*b = Business(aux)
	b.Extra = extra
	return nil
}

// MarshalJSON writes the modeled fields plus any passthrough fields.
func (b Business) MarshalJSON() ([]byte, error) {
	if b.Types == nil {
		b.Types = []string{}
	}
	base, err := json.Marshal(businessJSON(b))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, b.Extra)
}
