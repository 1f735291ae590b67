package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Real-Time Events Search on RapidAPI.  Auth is the x-rapidapi-key header
// together with x-rapidapi-host.

const (
	defaultRealTimeURL  = "https://real-time-events-search.p.rapidapi.com"
	defaultRealTimeHost = "real-time-events-search.p.rapidapi.com"
)

type RealTimeEvents struct {
	baseURL string
	header  http.Header
	call    caller
}

func NewRealTimeEvents(opts Options, hc *HTTPDeps) *RealTimeEvents {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultRealTimeURL
	}
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = defaultRealTimeHost
	}
	h := http.Header{}
	h.Set("x-rapidapi-key", strings.TrimSpace(opts.APIKey))
	h.Set("x-rapidapi-host", host)
	return &RealTimeEvents{
		baseURL: base,
		header:  h,
		call:    hc.caller("realtime", opts),
	}
}

func (r *RealTimeEvents) Name() string { return "realtime" }

// SearchListings looks events up by free text.  The caller passes the
// primary event's name; the response nests `ticket_links` under `data`.
func (r *RealTimeEvents) SearchListings(ctx context.Context, query string) (Payload, error) {
	v := url.Values{}
	v.Set("query", strings.TrimSpace(query))
	v.Set("start", "0")
	return r.call.getJSON(ctx, "listings", r.baseURL+"/search-events?"+v.Encode(), r.header)
}
