// Package queue contains the background consumer that listens to the
// activity queue and writes one line per event to <dir>/activity.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerConfig says where to read from and where to write.
type ConsumerConfig struct {
	URL    string
	Queue  string
	LogDir string
}

// StartActivityConsumer connects to RabbitMQ, declares the activity queue
// (durable) and appends each message to the activity log.  It runs a
// reconnect loop with exponential backoff and returns only when ctx is
// cancelled.  Messages that cannot be handled are rejected without requeue
// so the server keeps operating.
func StartActivityConsumer(ctx context.Context, cfg ConsumerConfig, logger *slog.Logger) error {
	if cfg.Queue == "" {
		cfg.Queue = DefaultActivityQueue
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "logs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "activity-consumer", "queue", cfg.Queue)

	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			logger.Warn("dial broker failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, cfg, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("consume loop ended; reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("set QoS failed", "err", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, cfg.LogDir); err != nil {
			logger.Error("handle message failed", "err", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, dir string) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" {
		return errors.New("activity event without kind")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "activity.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev ActivityEvent) string {
	switch ev.Kind {
	case KindComparisonViewed:
		return fmt.Sprintf("[%s] Comparison viewed | id=%s | user_id=%d | event_id=%s | event=%q | listings=%d | outcome=%s\n",
			ev.OccurredAt, ev.ID, ev.UserID, ev.EventID, ev.EventName, ev.ResultCount, ev.Outcome)
	default:
		return fmt.Sprintf("[%s] %s | id=%s | user_id=%d | query=%q | results=%d | outcome=%s\n",
			ev.OccurredAt, ev.Kind, ev.ID, ev.UserID, ev.Query, ev.ResultCount, ev.Outcome)
	}
}
