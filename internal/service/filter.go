package service

import (
	"strings"

	"github.com/iliyamo/ticket-compare/internal/model"
)

// Criteria narrows a search result after normalization.  The zero value
// matches everything.
type Criteria struct {
	// PriceCeiling keeps events whose minimum price is at or below it.
	// Events without a known price always pass.
	PriceCeiling *float64
	// Sources keeps events whose data_source equals one of these,
	// ignoring case.  Empty means no source filtering.
	Sources []string
}

func (c Criteria) empty() bool {
	return c.PriceCeiling == nil && len(c.Sources) == 0
}

// FilterEvents applies c to events preserving order.  The input slice is
// never modified; with empty criteria it is returned as is.
func FilterEvents(events []model.Event, c Criteria) []model.Event {
	if c.empty() {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if !c.matchPrice(ev) || !c.matchSource(ev) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (c Criteria) matchPrice(ev model.Event) bool {
	if c.PriceCeiling == nil {
		return true
	}
	min := ev.MinPrice()
	if min == nil {
		return true
	}
	return *min <= *c.PriceCeiling
}

func (c Criteria) matchSource(ev model.Event) bool {
	if len(c.Sources) == 0 {
		return true
	}
	for _, s := range c.Sources {
		if strings.EqualFold(s, ev.DataSource) {
			return true
		}
	}
	return false
}
