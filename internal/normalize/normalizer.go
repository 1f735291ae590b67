// Package normalize turns raw provider payloads into canonical events.
// Normalization is total: any input, including nil or an unknown source,
// yields a usable model.Event.
package normalize

import (
	"github.com/iliyamo/ticket-compare/internal/model"
	"github.com/iliyamo/ticket-compare/internal/provider"
)

// MapperFunc converts one raw event of a specific provider.
type MapperFunc func(raw map[string]any) model.Event

// Registry dispatches on the source tag.  Register is meant for startup;
// Normalize is safe for concurrent use once registration is done.
type Registry struct {
	mappers map[model.Source]MapperFunc
}

// NewRegistry returns a registry with every built-in provider mapping.
func NewRegistry() *Registry {
	r := &Registry{mappers: map[model.Source]MapperFunc{}}
	r.Register(model.SourceTicketmaster, ticketmaster)
	return r
}

// Register adds or replaces the mapping for source.
func (r *Registry) Register(source model.Source, fn MapperFunc) {
	r.mappers[source] = fn
}

func (r *Registry) Normalize(raw provider.Payload, source string) model.Event {
	m := map[string]any(raw)
	if m == nil {
		m = map[string]any{}
	}
	if fn, ok := r.mappers[model.Source(source)]; ok {
		return fn(m)
	}
	return fallback(m, source)
}

// NormalizeAll maps each payload in order.
func (r *Registry) NormalizeAll(raws []provider.Payload, source string) []model.Event {
	out := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		out = append(out, r.Normalize(raw, source))
	}
	return out
}

var defaultRegistry = NewRegistry()

// Normalize uses the built-in registry.
func Normalize(raw provider.Payload, source string) model.Event {
	return defaultRegistry.Normalize(raw, source)
}

// fallback keeps only identity fields for providers without a mapping.
func fallback(m map[string]any, source string) model.Event {
	return model.Event{
		ID:         text(m, "id", ""),
		DataSource: source,
		Name:       text(m, "name", model.DefaultEventName),
	}
}
