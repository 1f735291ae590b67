package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-compare/internal/config"
	"github.com/iliyamo/ticket-compare/internal/metrics"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestTicketmaster_SearchEvents_BuildsQuery(t *testing.T) {
	var got *http.Request
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_embedded":{"events":[{"id":"G1","name":"Jazz Night"}]}}`))
	})

	tm := NewTicketmaster(Options{BaseURL: srv.URL, APIKey: "k"}, nil)
	p, err := tm.SearchEvents(context.Background(), EventQuery{
		Keyword: "jazz", Genre: "Music", City: "Boston", Date: "2025-06-01",
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/events.json", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "k", q.Get("apikey"))
	assert.Equal(t, "jazz", q.Get("keyword"))
	assert.Equal(t, "Music", q.Get("classificationName"))
	assert.Equal(t, "Boston", q.Get("city"))
	assert.Equal(t, "2025-06-01T00:00:00Z", q.Get("startDateTime"))
	assert.Equal(t, "2025-06-01T23:59:59Z", q.Get("endDateTime"))
	assert.Equal(t, "30", q.Get("size"))
	assert.Empty(t, q.Get("page"))

	events, ok := tm.EventsFrom(p)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "G1", events[0]["id"])
}

func TestTicketmaster_EventsFrom_NoEmbedded(t *testing.T) {
	tm := NewTicketmaster(Options{APIKey: "k"}, nil)
	events, ok := tm.EventsFrom(Payload{"page": map[string]any{"totalElements": 0.0}})
	assert.False(t, ok)
	assert.Nil(t, events)
}

func TestTicketmaster_GetEvent_PathAndErrors(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/E1.json":
			_, _ = w.Write([]byte(`{"id":"E1","name":"Jazz Night"}`))
		case "/events/missing.json":
			http.NotFound(w, r)
		case "/events/broken.json":
			_, _ = w.Write([]byte(`<html>oops</html>`))
		case "/events/null.json":
			_, _ = w.Write([]byte(`null`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	m := metrics.NewProvider(nil)
	tm := NewTicketmaster(Options{BaseURL: srv.URL, APIKey: "k"}, &HTTPDeps{Metrics: m})
	ctx := context.Background()

	p, err := tm.GetEvent(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", p["name"])

	_, err = tm.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tm.GetEvent(ctx, "broken")
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = tm.GetEvent(ctx, "null")
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = tm.GetEvent(ctx, "other")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "http 500")

	_, err = tm.GetEvent(ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)

	reqs := m.Requests()
	assert.Equal(t, 1.0, testutil.ToFloat64(reqs.WithLabelValues("ticketmaster", "event", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reqs.WithLabelValues("ticketmaster", "event", metrics.OutcomeNotFound)))
	assert.Equal(t, 2.0, testutil.ToFloat64(reqs.WithLabelValues("ticketmaster", "event", metrics.OutcomeMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reqs.WithLabelValues("ticketmaster", "event", metrics.OutcomeUnavailable)))
}

func TestRealTimeEvents_SearchListings_SendsRapidAPIHeaders(t *testing.T) {
	var got *http.Request
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"status":"OK","data":[]}`))
	})

	rt := NewRealTimeEvents(Options{BaseURL: srv.URL + "/", APIKey: "secret"}, nil)
	p, err := rt.SearchListings(context.Background(), "Jazz Night")
	require.NoError(t, err)
	assert.Equal(t, "OK", p["status"])

	require.NotNil(t, got)
	assert.Equal(t, "/search-events", got.URL.Path)
	assert.Equal(t, "Jazz Night", got.URL.Query().Get("query"))
	assert.Equal(t, "0", got.URL.Query().Get("start"))
	assert.Equal(t, "secret", got.Header.Get("x-rapidapi-key"))
	assert.Equal(t, "real-time-events-search.p.rapidapi.com", got.Header.Get("x-rapidapi-host"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestCaller_TimeoutIsUpstreamUnavailable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	})

	deps := &HTTPDeps{Client: NewHTTPClient(20 * time.Millisecond)}
	rt := NewRealTimeEvents(Options{BaseURL: srv.URL, APIKey: "k"}, deps)
	_, err := rt.SearchListings(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestCaller_RateLimiterHonoursContext(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	tm := NewTicketmaster(Options{BaseURL: srv.URL, APIKey: "k", RatePerSecond: 0.01, Burst: 1}, nil)
	_, err := tm.GetEvent(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tm.GetEvent(ctx, "b")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(config.ProvidersConfig{}, nil)
	assert.Error(t, err)

	set, err := NewFromConfig(config.ProvidersConfig{
		Ticketmaster: config.ProviderConfig{APIKey: "tm"},
		Timeout:      time.Second,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ticketmaster", set.Events.Name())
	assert.Nil(t, set.Listings)

	set, err = NewFromConfig(config.ProvidersConfig{
		Ticketmaster: config.ProviderConfig{APIKey: "tm"},
		RealTime:     config.ProviderConfig{APIKey: "rapid"},
		Timeout:      time.Second,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, set.Listings)
	assert.Equal(t, "realtime", set.Listings.Name())
}
