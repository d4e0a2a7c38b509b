package events

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/sells-group/leaseboost/internal/model"
)

// Keywords is the allow-list applied to heuristic providers.
var Keywords = []string{"market", "farmers", "community", "festival", "fair", "local"}

var folder = cases.Fold()

// MatchesKeywords reports whether name or description contains an allow-listed
// keyword, ignoring case.
func MatchesKeywords(name, description string) bool {
	haystack := folder.String(name) + "\n" + folder.String(description)
	for _, kw := range Keywords {
		if strings.Contains(haystack, folder.String(kw)) {
			return true
		}
	}
	return false
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://leaseboost.app/events"))

// StableID derives a deterministic UUIDv5 from the identifying parts of an
// event, so the same event gets the same id on every request.
func StableID(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.TrimSpace(folder.String(p))
	}
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(norm, "|"))).String()
}

// eventID prefixes the upstream id, or a stable id derived from fallback
// when the upstream record has none.
func eventID(prefix, upstream string, fallback ...string) string {
	if upstream = strings.TrimSpace(upstream); upstream != "" {
		return prefix + upstream
	}
	return prefix + StableID(fallback...)
}

// SearchURL builds a web search URL for an event. It returns nil without a title.
func SearchURL(title, venue, date string) *string {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	terms := []string{title}
	for _, s := range []string{venue, dateOnly(date)} {
		if s = strings.TrimSpace(s); s != "" {
			terms = append(terms, s)
		}
	}
	u := "https://www.google.com/search?q=" + url.QueryEscape(strings.Join(terms, " "))
	return &u
}

// BackfillURL fills e.URL when it is empty: first from related links whose
// host is not one of internalHosts, then with a search URL.
func BackfillURL(e *model.Event, related []string, internalHosts ...string) {
	if e.URL != nil && *e.URL != "" {
		return
	}
	e.URL = nil
	for _, link := range related {
		if isExternal(link, internalHosts) {
			l := link
			e.URL = &l
			return
		}
	}
	venue := ""
	if e.Venue != nil {
		venue = e.Venue.Name
	}
	e.URL = SearchURL(e.Name, venue, model.Deref(e.Start))
}

func isExternal(link string, internalHosts []string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range internalHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return false
		}
	}
	return true
}

func dateOnly(ts string) string {
	ts = strings.TrimSpace(ts)
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// coordOr returns v when set, else the fallback.
func coordOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
