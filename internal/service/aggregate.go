package service

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/iliyamo/ticket-compare/internal/model"
	"github.com/iliyamo/ticket-compare/internal/provider"
)

// MatchMode controls how secondary events are joined to the primary one.
// Providers share no identifier, so the join is by event name.
type MatchMode int

const (
	// MatchExact compares names byte for byte.
	MatchExact MatchMode = iota
	// MatchFolded ignores case, punctuation and runs of whitespace.
	MatchFolded
)

// ParseMatchMode maps the config value; anything but "folded" is exact.
func ParseMatchMode(s string) MatchMode {
	if strings.EqualFold(strings.TrimSpace(s), "folded") {
		return MatchFolded
	}
	return MatchExact
}

func (m MatchMode) same(a, b string) bool {
	if m == MatchFolded {
		return fold(a) == fold(b)
	}
	return a == b
}

func fold(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// AggregateListings attaches the secondary provider's ticket links to the
// primary event.
//
// The secondary `data` field is either one event object or an array of
// events.  For an array, exactly one entry must carry the primary's name;
// no match or several candidates with different link sets give no
// listings.  Links are deduplicated by URL in first-seen order and entries
// without a link are skipped.
func AggregateListings(primary model.Event, secondary provider.Payload, match MatchMode) model.Comparison {
	p := primary
	out := model.Comparison{Primary: &p, Listings: []model.Listing{}, Status: model.ListingsNotFound}

	var links []any
	switch data := secondary["data"].(type) {
	case map[string]any:
		links, _ = data["ticket_links"].([]any)
	case []any:
		links = matchLinks(data, primary.Name, match)
	}

	seen := make(map[string]struct{}, len(links))
	for _, item := range links {
		link, ok := item.(map[string]any)
		if !ok {
			continue
		}
		u, _ := link["link"].(string)
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		l := model.Listing{
			EventID:     primary.ID,
			EventName:   primary.Name,
			ProviderURL: u,
			DataSource:  listingSource(link),
		}
		if icon, _ := link["favicon"].(string); icon != "" {
			l.Icon = &icon
		}
		out.Listings = append(out.Listings, l)
	}

	if len(out.Listings) > 0 {
		out.Status = model.ListingsFound
	}
	return out
}

// matchLinks returns the ticket_links of the single event named like the
// primary.  Repeated entries with the same name are only ambiguous when
// their link sets differ.
func matchLinks(events []any, name string, match MatchMode) []any {
	var found []any
	var key string
	n := 0
	for _, item := range events {
		ev, ok := item.(map[string]any)
		if !ok {
			continue
		}
		evName, _ := ev["name"].(string)
		if !match.same(evName, name) {
			continue
		}
		links, _ := ev["ticket_links"].([]any)
		k := linkKey(links)
		if n > 0 && k == key {
			continue
		}
		found, key = links, k
		n++
	}
	if n != 1 {
		return nil
	}
	return found
}

func linkKey(links []any) string {
	var b strings.Builder
	for _, item := range links {
		if link, ok := item.(map[string]any); ok {
			u, _ := link["link"].(string)
			b.WriteString(u)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// listingSource names the seller.  RapidAPI calls it `source`; the host of
// the link is used when that is missing.
func listingSource(link map[string]any) string {
	if s, _ := link["source"].(string); strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	raw, _ := link["link"].(string)
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return "unknown"
}
