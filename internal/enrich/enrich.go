// Package enrich attaches contact details to businesses, event venues and
// institutions. Enrichment is additive and best-effort: a failed lookup
// leaves the record as it was.
package enrich

import (
	"slices"
	"time"

	"github.com/sells-group/leaseboost/internal/metrics"
	"github.com/sells-group/leaseboost/internal/model"
)

// DefaultLimit is how many records are enriched when no ids are given.
const DefaultLimit = 2

// maxParallel bounds concurrent record lookups within one request.
const maxParallel = 8

// Selection chooses which records to enrich. Non-nil IDs select exactly the
// records with those ids and ignore Limit; otherwise the first Limit
// eligible records are chosen.
type Selection struct {
	Limit int
	IDs   []string
}

// NewSelection applies the default limit when limit is nil.
func NewSelection(limit *int, ids []string) Selection {
	s := Selection{Limit: DefaultLimit, IDs: ids}
	if limit != nil {
		s.Limit = *limit
	}
	return s
}

// pick returns the indexes of the selected records in input order.
func (s Selection) pick(n int, idOf func(int) string, eligible func(int) bool) []int {
	var out []int
	if s.IDs != nil {
		for i := range n {
			if id := idOf(i); id != "" && slices.Contains(s.IDs, id) {
				out = append(out, i)
			}
		}
		return out
	}
	for i := 0; i < n && len(out) < s.Limit; i++ {
		if eligible(i) {
			out = append(out, i)
		}
	}
	return out
}

// observe records a lookup outcome when metrics are configured.
func observe(m *metrics.Metrics, provider string, err error, found bool, start time.Time) {
	outcome := model.OutcomeSuccess
	records := 1
	switch {
	case err != nil:
		outcome, records = model.OutcomeFailure, 0
	case !found:
		outcome, records = model.OutcomeEmpty, 0
	}
	m.ObserveProvider(provider, string(outcome), records, time.Since(start))
}
