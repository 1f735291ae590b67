package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/ticket-compare/internal/queue"
)

// ActivityPublisher publishes ActivityEvents to RabbitMQ from a single
// background worker.  Record only enqueues, so a slow or absent broker
// never delays the request that produced the event; when the buffer is
// full the event is dropped and logged.  Each publish dials, declares the
// durable queue and closes again.
type ActivityPublisher struct {
	url            string
	queue          string
	dialTimeout    time.Duration
	publishTimeout time.Duration
	logger         *slog.Logger

	send    func(ctx context.Context, ev q.ActivityEvent) error
	pending chan q.ActivityEvent
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

const activityBuffer = 256

func NewActivityPublisher(url, queue string, logger *slog.Logger) *ActivityPublisher {
	p := &ActivityPublisher{url: url, queue: queue, dialTimeout: 2 * time.Second, publishTimeout: 5 * time.Second, logger: logger}
	p.send = p.Publish
	return p.start(activityBuffer)
}

func (p *ActivityPublisher) start(buffer int) *ActivityPublisher {
	if p.queue == "" {
		p.queue = q.DefaultActivityQueue
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.pending = make(chan q.ActivityEvent, buffer)
	p.done = make(chan struct{})
	go p.run()
	return p
}

func (p *ActivityPublisher) run() {
	defer close(p.done)
	for ev := range p.pending {
		// detached from the request: it has usually finished by now
		ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
		if err := p.send(ctx, ev); err != nil {
			p.logger.Warn("activity publish failed", "kind", ev.Kind, "err", err)
		}
		cancel()
	}
}

// Record queues ev for publishing and returns immediately.
func (p *ActivityPublisher) Record(_ context.Context, ev q.ActivityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.pending <- ev:
	default:
		p.logger.Warn("activity buffer full; event dropped", "kind", ev.Kind)
	}
}

// Close stops accepting events and waits for the queued ones to be sent,
// or for ctx to end.
func (p *ActivityPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.pending)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish sends ev as a persistent JSON message.  ID and OccurredAt are
// filled in when empty.
func (p *ActivityPublisher) Publish(ctx context.Context, ev q.ActivityEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Kind,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
