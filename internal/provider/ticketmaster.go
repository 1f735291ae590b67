package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Ticketmaster Discovery API v2.
// Docs: https://developer.ticketmaster.com/products-and-docs/apis/discovery-api/v2/
// Auth is the `apikey` query parameter.

const (
	defaultTicketmasterURL = "https://app.ticketmaster.com/discovery/v2"
	defaultSearchSize      = 30
	maxSearchSize          = 200
)

// Options configures a provider client.
type Options struct {
	BaseURL       string
	APIKey        string
	Host          string // RapidAPI host header; unused by Ticketmaster
	UserAgent     string
	RatePerSecond float64
	Burst         int
}

type Ticketmaster struct {
	baseURL string
	apiKey  string
	call    caller
}

func NewTicketmaster(opts Options, hc *HTTPDeps) *Ticketmaster {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultTicketmasterURL
	}
	return &Ticketmaster{
		baseURL: base,
		apiKey:  strings.TrimSpace(opts.APIKey),
		call:    hc.caller("ticketmaster", opts),
	}
}

func (t *Ticketmaster) Name() string { return "ticketmaster" }

// SearchEvents queries events.json.  A date is expanded to the whole UTC
// day.  Size defaults to 30.
func (t *Ticketmaster) SearchEvents(ctx context.Context, q EventQuery) (Payload, error) {
	v := url.Values{}
	v.Set("apikey", t.apiKey)
	if s := strings.TrimSpace(q.Keyword); s != "" {
		v.Set("keyword", s)
	}
	if s := strings.TrimSpace(q.Genre); s != "" {
		v.Set("classificationName", s)
	}
	if s := strings.TrimSpace(q.City); s != "" {
		v.Set("city", s)
	}
	if d := strings.TrimSpace(q.Date); d != "" {
		v.Set("startDateTime", d+"T00:00:00Z")
		v.Set("endDateTime", d+"T23:59:59Z")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	size := q.Size
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	v.Set("size", strconv.Itoa(size))

	return t.call.getJSON(ctx, "search", t.baseURL+"/events.json?"+v.Encode(), nil)
}

// GetEvent fetches one event by its Ticketmaster id.
func (t *Ticketmaster) GetEvent(ctx context.Context, id string) (Payload, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("ticketmaster: empty event id: %w", ErrNotFound)
	}
	v := url.Values{}
	v.Set("apikey", t.apiKey)
	u := fmt.Sprintf("%s/events/%s.json?%s", t.baseURL, url.PathEscape(id), v.Encode())
	return t.call.getJSON(ctx, "event", u, nil)
}

// EventsFrom returns `_embedded.events`.  Ticketmaster omits `_embedded`
// entirely when a search has no hits.
func (t *Ticketmaster) EventsFrom(p Payload) ([]Payload, bool) {
	emb, ok := p["_embedded"].(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := emb["events"].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Payload, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Payload(m))
		}
	}
	return out, true
}
