package model

import "encoding/json"

// Institution is a large nearby employer or school whose leasing contact the
// caller wants to reach.
type Institution struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Contact           string             `json:"contact"`
	Domain            string             `json:"domain,omitempty"`
	EnrichedContact   *EnrichedContact   `json:"enrichedContact,omitempty"`
	CompanyInfo       *CompanyInfo       `json:"companyInfo,omitempty"`
	EmailVerification *EmailVerification `json:"emailVerification,omitempty"`
	Error             string             `json:"error,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// CompanyInfo summarizes the domain-search response for an institution.
type CompanyInfo struct {
	Domain   *string  `json:"domain"`
	Company  *string  `json:"company"`
	Phone    *string  `json:"phone"`
	LinkedIn *string  `json:"linkedin"`
	Twitter  *string  `json:"twitter"`
	Facebook *string  `json:"facebook"`
	Emails   []string `json:"emails"`
}

// EmailVerification is the verdict for a discovered email address.
type EmailVerification struct {
	Email  string `json:"email"`
	Result string `json:"result"`
	Score  int    `json:"score"`
}

type institutionJSON Institution

// UnmarshalJSON keeps unknown fields in Extra.
func (i *Institution) UnmarshalJSON(data []byte) error {
	var aux institutionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	extra, err := splitExtra(data, aux)
	if err != nil {
		return err
	}
	*i = Institution(aux)
	i.Extra = extra
	return nil
}

// MarshalJSON writes the modeled fields plus any passthrough fields.
func (i Institution) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(institutionJSON(i))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, i.Extra)
}
