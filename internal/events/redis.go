package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamAdder is the subset of the go-redis client used for publishing.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher appends envelopes to a Redis stream. Envelope keys
// become stream fields; the payload is stored as a JSON string.
type RedisStreamPublisher struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedisStreamPublisher returns a publisher writing to stream. A positive
// maxLen trims the stream approximately on every append.
func NewRedisStreamPublisher(client StreamAdder, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, env Envelope) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":    env.EventID,
			"event_type":  env.EventType,
			"occurred_at": env.OccurredAt.Format(time.RFC3339Nano),
			"service":     env.Service,
			"payload":     string(env.Payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return errors.Join(ErrPublishFailed, fmt.Errorf("xadd %s: %w", p.stream, err))
	}
	return nil
}
