package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the subset of *amqp.Channel used for publishing.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends JSON envelopes to a durable topic exchange using the
// event type as routing key.
type AMQPPublisher struct {
	exchange string
	dial     func() (*amqp.Connection, AMQPChannel, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   AMQPChannel
}

// DialAMQP connects to url and declares exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if url == "" || exchange == "" {
		return nil, fmt.Errorf("%w: amqp url and exchange are required", ErrInvalidConfig)
	}
	p := &AMQPPublisher{exchange: exchange}
	p.dial = func() (*amqp.Connection, AMQPChannel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return conn, ch, nil
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewAMQPPublisher wraps an already open channel. The publisher does not
// reconnect when the channel closes.
func NewAMQPPublisher(ch AMQPChannel, exchange string) (*AMQPPublisher, error) {
	if err := declareExchange(ch, exchange); err != nil {
		return nil, err
	}
	return &AMQPPublisher{exchange: exchange, ch: ch}, nil
}

func declareExchange(ch AMQPChannel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return errors.Join(ErrBrokerUnavailable, fmt.Errorf("declare exchange %s: %w", exchange, err))
	}
	return nil
}

// connect must be called with mu held or before the publisher is shared.
func (p *AMQPPublisher) connect() error {
	conn, ch, err := p.dial()
	if err != nil {
		return errors.Join(ErrBrokerUnavailable, err)
	}
	if err := declareExchange(ch, p.exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return errors.Join(ErrEncodePayload, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.EventID,
		Timestamp:    env.OccurredAt,
		Type:         env.EventType,
		AppId:        env.Service,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || (p.conn != nil && p.conn.IsClosed()) {
		if p.dial == nil {
			return errors.Join(ErrPublishFailed, ErrBrokerUnavailable)
		}
		if err := p.connect(); err != nil {
			return errors.Join(ErrPublishFailed, err)
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, env.EventType, false, false, msg)
	if err == nil {
		return nil
	}
	if errors.Is(err, amqp.ErrClosed) && p.dial != nil {
		// One reconnect per publish; a second failure goes to the caller.
		if cerr := p.connect(); cerr == nil {
			err = p.ch.PublishWithContext(ctx, p.exchange, env.EventType, false, false, msg)
			if err == nil {
				return nil
			}
		}
	}
	return errors.Join(ErrPublishFailed, fmt.Errorf("publish %s: %w", env.EventType, err))
}

// Healthcheck reports whether the broker connection is open.
func (p *AMQPPublisher) Healthcheck(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || (p.conn != nil && p.conn.IsClosed()) {
		return ErrBrokerUnavailable
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
