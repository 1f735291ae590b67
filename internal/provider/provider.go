// Package provider talks to the third-party event and listing APIs.  It
// returns raw provider-shaped payloads; mapping them into canonical events
// is the normalizer's job.
package provider

import (
	"context"
	"errors"
)

// Payload is a decoded JSON object exactly as a provider sent it.
type Payload map[string]any

var (
	// ErrUpstreamUnavailable: the call failed at the transport level or the
	// provider answered with a non-2xx status other than 404.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNotFound: the provider answered but the entity does not exist.
	ErrNotFound = errors.New("not found upstream")
	// ErrMalformedPayload: the body could not be decoded as a JSON object.
	ErrMalformedPayload = errors.New("malformed payload")
)

// EventQuery holds the primary-provider search parameters.  Zero values
// are left out of the upstream request.
type EventQuery struct {
	Keyword string
	Genre   string
	City    string
	Date    string // YYYY-MM-DD
	Page    int
	Size    int
}

// EventSource is the primary provider capability.
type EventSource interface {
	Name() string
	SearchEvents(ctx context.Context, q EventQuery) (Payload, error)
	GetEvent(ctx context.Context, id string) (Payload, error)
	// EventsFrom extracts the raw event list from a search payload.  The
	// second result is false when the payload has no event collection.
	EventsFrom(p Payload) ([]Payload, bool)
}

// ListingSource is the secondary provider capability.
type ListingSource interface {
	Name() string
	SearchListings(ctx context.Context, query string) (Payload, error)
}
