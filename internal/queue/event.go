// Package queue defines message payloads exchanged over the message broker.
package queue

// DefaultActivityQueue is the durable queue activity events travel on.
const DefaultActivityQueue = "activity.events"

// Activity kinds.
const (
	KindSearchPerformed  = "search.performed"
	KindDiscoverViewed   = "discover.viewed"
	KindComparisonViewed = "comparison.viewed"
)

// ActivityEvent is published after a user searches or opens a comparison.
// It carries enough context for downstream consumers to log or build
// analytics without calling the providers again.
type ActivityEvent struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	UserID      uint64 `json:"user_id"`
	Query       string `json:"query,omitempty"`
	EventID     string `json:"event_id,omitempty"`
	EventName   string `json:"event_name,omitempty"`
	ResultCount int    `json:"result_count"`
	Outcome     string `json:"outcome"`
	OccurredAt  string `json:"occurred_at"`
}
