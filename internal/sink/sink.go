// Package sink defines the delivery contract for new-notification
// batches and small general-purpose implementations.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"notify_printer/internal/model"
)

// Sink consumes a batch of new notifications. Delivering an empty
// batch must succeed and have no observable effect.
type Sink interface {
	Deliver(ctx context.Context, notifications []model.Notification) error
}

// Log writes one structured log line per notification.
type Log struct {
	log *slog.Logger
}

// NewLog creates a sink that logs each notification.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// Deliver logs the batch.
func (l *Log) Deliver(_ context.Context, notifications []model.Notification) error {
	for _, n := range notifications {
		l.log.Info("notification",
			"source", n.Source,
			"id", n.ID,
			"type", n.Type,
			"repository", n.Repository,
			"title", n.Title,
		)
	}
	return nil
}

// Multi fans a batch out to several sinks. A failing sink is logged
// and does not block the others; Multi fails only when every sink fails.
type Multi struct {
	sinks []Sink
	log   *slog.Logger
}

// NewMulti creates a fan-out sink.
func NewMulti(log *slog.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, log: log}
}

// Deliver passes the batch to every sink.
func (m *Multi) Deliver(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 || len(m.sinks) == 0 {
		return nil
	}

	failed := 0
	for _, s := range m.sinks {
		if err := s.Deliver(ctx, notifications); err != nil {
			m.log.Error("deliver batch", "sink", fmt.Sprintf("%T", s), "error", err)
			failed++
		}
	}
	if failed == len(m.sinks) {
		return fmt.Errorf("all %d sinks failed", failed)
	}
	return nil
}
