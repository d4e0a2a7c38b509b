package model

import "encoding/json"

// Venue is the physical location of an event.
type Venue struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Event is the provider-agnostic event record. Optional fields a provider
// does not supply stay nil and serialize as null.
type Event struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	Start               *string          `json:"start"`
	End                 *string          `json:"end"`
	URL                 *string          `json:"url"`
	Venue               *Venue           `json:"venue"`
	OnlineEvent         bool             `json:"online_event"`
	IsFree              *bool            `json:"is_free"`
	HasAvailableTickets *bool            `json:"has_available_tickets"`
	Logo                *string          `json:"logo"`
	Rating              *float64         `json:"rating"`
	Types               []string         `json:"types"`
	Attendees           *int             `json:"attendees,omitempty"`
	Group               *string          `json:"group,omitempty"`
	VenueContact        *EnrichedContact `json:"venueContact,omitempty"`

	// Source is the provider that produced the record. Internal only.
	Source string `json:"-"`
	// Extra carries fields sent by clients that this service does not model,
	// so enrichment round-trips them untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

type eventJSON Event

// UnmarshalJSON keeps unknown fields in Extra.
func (e *Event) UnmarshalJSON(data []byte) error {
	var aux eventJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	extra, err := splitExtra(data, aux)
	if err != nil {
		return err
	}
	*e = Event(aux)
	e.Extra = extra
	return nil
}

// MarshalJSON writes the modeled fields plus any passthrough fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Types == nil {
		e.Types = []string{}
	}
	base, err := json.Marshal(eventJSON(e))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, e.Extra)
}
