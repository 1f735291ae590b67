package provider

import (
	"fmt"
	"strings"

	"github.com/iliyamo/ticket-compare/internal/config"
	"github.com/iliyamo/ticket-compare/internal/metrics"
)

// Set is the pair of upstreams one comparison needs.
type Set struct {
	Events   EventSource
	Listings ListingSource
}

func optionsFrom(pc config.ProviderConfig) Options {
	return Options{
		BaseURL:       pc.BaseURL,
		APIKey:        pc.APIKey,
		Host:          pc.Host,
		UserAgent:     pc.UserAgent,
		RatePerSecond: pc.RatePerSecond,
		Burst:         pc.Burst,
	}
}

// NewFromConfig builds both clients over one shared HTTP client so they
// share the connection pool and the configured timeout.  Without a RapidAPI
// key Listings stays nil and comparisons report no other sellers.
func NewFromConfig(pc config.ProvidersConfig, m *metrics.Provider) (Set, error) {
	if strings.TrimSpace(pc.Ticketmaster.APIKey) == "" {
		return Set{}, fmt.Errorf("ticketmaster api key is required")
	}
	deps := &HTTPDeps{Client: NewHTTPClient(pc.Timeout), Metrics: m}
	set := Set{Events: NewTicketmaster(optionsFrom(pc.Ticketmaster), deps)}
	if strings.TrimSpace(pc.RealTime.APIKey) != "" {
		set.Listings = NewRealTimeEvents(optionsFrom(pc.RealTime), deps)
	}
	return set, nil
}
