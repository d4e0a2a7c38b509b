// Package dedup collapses records that refer to the same real-world entity.
package dedup

import (
	"strconv"

	"github.com/sells-group/leaseboost/internal/model"
)

// By deduplicates records by key. On collision the later record replaces the
// earlier one but keeps the earlier one's position, so the output is ordered
// by first insertion. Running By twice is a no-op.
func By[T any](records []T, key func(i int, r T) string) []T {
	if len(records) == 0 {
		return records
	}
	index := make(map[string]int, len(records))
	out := make([]T, 0, len(records))
	for i, r := range records {
		k := key(i, r)
		if pos, ok := index[k]; ok {
			out[pos] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// Businesses deduplicates by place ID. Records without one get a synthetic
// per-position key and are never collapsed.
func Businesses(records []model.Business) []model.Business {
	return By(records, func(i int, b model.Business) string {
		if b.PlaceID != nil && *b.PlaceID != "" {
			return *b.PlaceID
		}
		return "\x00idx:" + strconv.Itoa(i)
	})
}

// Events deduplicates by the provider-namespaced event ID.
func Events(records []model.Event) []model.Event {
	return By(records, func(_ int, e model.Event) string {
		return e.ID
	})
}

// Cap truncates records to at most n entries. n <= 0 means unbounded.
func Cap[T any](records []T, n int) []T {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[:n]
}
