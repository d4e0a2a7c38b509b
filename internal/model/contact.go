package model

// EnrichedContact holds contact details attached by the enrichment stage.
// A nil *EnrichedContact means enrichment was not attempted or found nothing.
type EnrichedContact struct {
	Name          *string  `json:"name,omitempty"`
	Phone         *string  `json:"phone"`
	Website       *string  `json:"website"`
	Address       *string  `json:"address"`
	OpeningHours  []string `json:"openingHours"`
	GooglePlaceID *string  `json:"googlePlaceId"`

	// Provenance from the email/domain provider.
	Email      *string `json:"email,omitempty"`
	LinkedIn   *string `json:"linkedin,omitempty"`
	Twitter    *string `json:"twitter,omitempty"`
	Confidence *int    `json:"confidence,omitempty"`
	Sources    *int    `json:"sources,omitempty"`
}

// Reachable reports whether the contact already has a phone or an email.
func (c *EnrichedContact) Reachable() bool {
	return c != nil && (c.Phone != nil || c.Email != nil)
}

// Empty reports whether no field is populated.
func (c *EnrichedContact) Empty() bool {
	if c == nil {
		return true
	}
	return c.Name == nil && c.Phone == nil && c.Website == nil && c.Address == nil &&
		len(c.OpeningHours) == 0 && c.GooglePlaceID == nil && c.Email == nil &&
		c.LinkedIn == nil && c.Twitter == nil && c.Confidence == nil && c.Sources == nil
}

// MergeContact overlays next onto prev field by field. A nil field in next
// never clears a populated field in prev.
func MergeContact(prev, next *EnrichedContact) *EnrichedContact {
	if next.Empty() {
		return prev
	}
	if prev == nil {
		return next
	}
	out := *prev
	out.Name = pick(next.Name, prev.Name)
	out.Phone = pick(next.Phone, prev.Phone)
	out.Website = pick(next.Website, prev.Website)
	out.Address = pick(next.Address, prev.Address)
	out.GooglePlaceID = pick(next.GooglePlaceID, prev.GooglePlaceID)
	out.Email = pick(next.Email, prev.Email)
	out.LinkedIn = pick(next.LinkedIn, prev.LinkedIn)
	out.Twitter = pick(next.Twitter, prev.Twitter)
	out.Confidence = pick(next.Confidence, prev.Confidence)
	out.Sources = pick(next.Sources, prev.Sources)
	if len(next.OpeningHours) > 0 {
		out.OpeningHours = next.OpeningHours
	}
	return &out
}

func pick[T any](next, prev *T) *T {
	if next != nil {
		return next
	}
	return prev
}
