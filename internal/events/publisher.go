package events

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/filesvc/pkg/logger"
)

// Publisher delivers a single envelope to a broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = logger.Discard()
	}
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, env Envelope) error {
	p.log.InfoContext(ctx, "event published",
		logger.EventType(env.EventType),
		slog.String("event_id", env.EventID),
		slog.Time("occurred_at", env.OccurredAt),
		slog.String("payload", string(env.Payload)),
	)
	return nil
}
