// Package service holds the event search and comparison pipeline: fetch
// from the providers, normalize, then filter or aggregate.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iliyamo/ticket-compare/internal/model"
	"github.com/iliyamo/ticket-compare/internal/normalize"
	"github.com/iliyamo/ticket-compare/internal/provider"
	q "github.com/iliyamo/ticket-compare/internal/queue"
)

// User-facing outcome messages.
const (
	MsgNoEvents         = "No events found"
	MsgEventsError      = "Error loading events"
	MsgEventNotFound    = "Event not found on Ticketmaster"
	MsgEventError       = "Error loading event from Ticketmaster"
	MsgNoSellers        = "No other sellers found"
	MsgListingsError    = "Error loading listings"
	MsgComparisonLoaded = "Loaded successfully"
)

// ActivitySink receives one event per completed search or comparison.
type ActivitySink interface {
	Record(ctx context.Context, ev q.ActivityEvent)
}

// SearchQuery is a user search.  Provider-side parameters go upstream;
// Criteria is applied locally after normalization.
type SearchQuery struct {
	Keyword  string
	Genre    string
	City     string
	Date     string // YYYY-MM-DD
	Page     int
	Criteria Criteria
	UserID   uint64
}

// SearchResult is always renderable: Events is never nil and Message
// explains an empty or failed result.
type SearchResult struct {
	Events  []model.Event `json:"results"`
	Message string        `json:"message,omitempty"`
	Error   bool          `json:"error,omitempty"`
}

type Options struct {
	Match           MatchMode
	SearchSize      int
	DiscoverKeyword string
	DiscoverSize    int
	Registry        *normalize.Registry
	Activity        ActivitySink
	Logger          *slog.Logger
}

type EventService struct {
	events   provider.EventSource
	listings provider.ListingSource
	opts     Options
	log      *slog.Logger
}

// NewEventService wires the pipeline.  listings may be nil, in which case
// every comparison reports no other sellers.
func NewEventService(events provider.EventSource, listings provider.ListingSource, opts Options) *EventService {
	if opts.SearchSize <= 0 {
		opts.SearchSize = 30
	}
	if opts.DiscoverKeyword == "" {
		opts.DiscoverKeyword = "edm"
	}
	if opts.DiscoverSize <= 0 {
		opts.DiscoverSize = 10
	}
	if opts.Registry == nil {
		opts.Registry = normalize.NewRegistry()
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &EventService{events: events, listings: listings, opts: opts, log: l.With("component", "event-service")}
}

// Search queries the primary provider and filters the normalized result.
func (s *EventService) Search(ctx context.Context, sq SearchQuery) SearchResult {
	res := s.fetch(ctx, provider.EventQuery{
		Keyword: sq.Keyword,
		Genre:   sq.Genre,
		City:    sq.City,
		Date:    sq.Date,
		Page:    sq.Page,
		Size:    s.opts.SearchSize,
	})
	if !res.Error {
		res.Events = FilterEvents(res.Events, sq.Criteria)
		if len(res.Events) == 0 {
			res.Message = MsgNoEvents
		}
	}
	s.record(ctx, q.ActivityEvent{
		Kind:        q.KindSearchPerformed,
		UserID:      sq.UserID,
		Query:       sq.Keyword,
		ResultCount: len(res.Events),
		Outcome:     outcome(res),
	})
	return res
}

// Discover lists a fixed curated keyword.
func (s *EventService) Discover(ctx context.Context, userID uint64) SearchResult {
	res := s.fetch(ctx, provider.EventQuery{Keyword: s.opts.DiscoverKeyword, Size: s.opts.DiscoverSize})
	s.record(ctx, q.ActivityEvent{
		Kind:        q.KindDiscoverViewed,
		UserID:      userID,
		Query:       s.opts.DiscoverKeyword,
		ResultCount: len(res.Events),
		Outcome:     outcome(res),
	})
	return res
}

func (s *EventService) fetch(ctx context.Context, eq provider.EventQuery) SearchResult {
	payload, err := s.events.SearchEvents(ctx, eq)
	if err != nil {
		s.log.Error("event search failed", "provider", s.events.Name(), "keyword", eq.Keyword, "err", err)
		return SearchResult{Events: []model.Event{}, Message: MsgEventsError, Error: true}
	}
	raws, ok := s.events.EventsFrom(payload)
	if !ok || len(raws) == 0 {
		return SearchResult{Events: []model.Event{}, Message: MsgNoEvents}
	}
	return SearchResult{Events: s.opts.Registry.NormalizeAll(raws, s.events.Name())}
}

// Compare loads one primary event and the secondary listings sharing its
// name.  The secondary provider is not called when the primary lookup
// fails.
func (s *EventService) Compare(ctx context.Context, eventID string, userID uint64) model.Comparison {
	c := s.compare(ctx, eventID)
	ev := q.ActivityEvent{
		Kind:        q.KindComparisonViewed,
		UserID:      userID,
		EventID:     eventID,
		ResultCount: len(c.Listings),
		Outcome:     string(c.Status),
	}
	if c.Primary != nil {
		ev.EventName = c.Primary.Name
	}
	s.record(ctx, ev)
	return c
}

func (s *EventService) compare(ctx context.Context, eventID string) model.Comparison {
	raw, err := s.events.GetEvent(ctx, eventID)
	switch {
	case errors.Is(err, provider.ErrNotFound):
		return model.Comparison{Listings: []model.Listing{}, Status: model.EventNotFound, Message: MsgEventNotFound}
	case err != nil:
		s.log.Error("primary event lookup failed", "provider", s.events.Name(), "event_id", eventID, "err", err)
		return model.Comparison{Listings: []model.Listing{}, Status: model.ListingsError, Message: MsgEventError}
	}
	primary := s.opts.Registry.Normalize(raw, s.events.Name())

	if s.listings == nil {
		return withMessage(AggregateListings(primary, nil, s.opts.Match))
	}
	secondary, err := s.listings.SearchListings(ctx, primary.Name)
	if err != nil {
		s.log.Error("listing search failed", "provider", s.listings.Name(), "event", primary.Name, "err", err)
		return model.Comparison{Primary: &primary, Listings: []model.Listing{}, Status: model.ListingsError, Message: MsgListingsError}
	}
	return withMessage(AggregateListings(primary, secondary, s.opts.Match))
}

func withMessage(c model.Comparison) model.Comparison {
	if len(c.Listings) == 0 {
		c.Message = MsgNoSellers
	} else {
		c.Message = MsgComparisonLoaded
	}
	return c
}

func (s *EventService) record(ctx context.Context, ev q.ActivityEvent) {
	if s.opts.Activity == nil {
		return
	}
	s.opts.Activity.Record(ctx, ev)
}

func outcome(r SearchResult) string {
	switch {
	case r.Error:
		return "error"
	case len(r.Events) == 0:
		return "empty"
	}
	return "ok"
}
