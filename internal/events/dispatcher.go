package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/filesvc/pkg/logger"
)

// Observer receives delivery outcomes, typically to feed metrics.
type Observer interface {
	EventPublished(eventType string, err error)
	EventDropped(eventType string)
}

type noopObserver struct{}

func (noopObserver) EventPublished(string, error) {}
func (noopObserver) EventDropped(string)          {}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	buffer   int
	workers  int
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
	clock    func() time.Time
}

// WithBuffer sets the queue capacity. Values below 1 are ignored.
func WithBuffer(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithWorkers sets the number of publishing goroutines.
func WithWorkers(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithPublishTimeout bounds every single publish call.
func WithPublishTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithObserver(obs Observer) DispatcherOption {
	return func(o *dispatcherOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(o *dispatcherOptions) {
		if now != nil {
			o.clock = now
		}
	}
}

// Dispatcher decouples event emission from the request path. Publish never
// blocks: when the queue is full or the dispatcher has stopped, the event is
// dropped and logged. All methods are safe for concurrent use.
type Dispatcher struct {
	pub      Publisher
	queue    chan queued
	workers  int
	timeout  time.Duration
	log      *slog.Logger
	observer Observer
	now      func() time.Time

	mu      sync.RWMutex
	closed  bool
	running atomic.Bool
}

func NewDispatcher(pub Publisher, opts ...DispatcherOption) *Dispatcher {
	o := &dispatcherOptions{
		buffer:   256,
		workers:  2,
		timeout:  5 * time.Second,
		logger:   logger.Discard(),
		observer: noopObserver{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Dispatcher{
		pub:      pub,
		queue:    make(chan queued, o.buffer),
		workers:  o.workers,
		timeout:  o.timeout,
		log:      o.logger,
		observer: o.observer,
		now:      o.clock,
	}
}

// queued keeps the caller's context values for logging. Its cancellation is
// detached: delivery outlives the request that emitted the event.
type queued struct {
	ctx context.Context
	env Envelope
}

// Publish enqueues an event and reports whether it was accepted. A false
// return is informational only; callers must not fail on it. ctx is only
// used for its values (request id, user id) in log records.
func (d *Dispatcher) Publish(ctx context.Context, eventType string, payload any) bool {
	ctx = context.WithoutCancel(ctx)

	env, err := NewEnvelope(eventType, payload, d.now())
	if err != nil {
		d.log.ErrorContext(ctx, "event dropped", logger.EventType(eventType), logger.Error(err))
		d.observer.EventDropped(eventType)
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, env, "dispatcher stopped")
		return false
	}

	select {
	case d.queue <- queued{ctx: ctx, env: env}:
		return true
	default:
		d.drop(ctx, env, "queue full")
		return false
	}
}

func (d *Dispatcher) drop(ctx context.Context, env Envelope, reason string) {
	d.log.WarnContext(ctx, "event dropped",
		logger.EventType(env.EventType),
		slog.String("event_id", env.EventID),
		slog.String("reason", reason),
	)
	d.observer.EventDropped(env.EventType)
}

// Run starts the workers and returns a function suitable for errgroup. The
// function blocks until ctx is done, then stops accepting events, publishes
// whatever is still queued and returns.
func (d *Dispatcher) Run(ctx context.Context) func() error {
	return func() error {
		if d.pub == nil {
			return ErrNilPublisher
		}
		if !d.running.CompareAndSwap(false, true) {
			return ErrAlreadyRunning
		}

		var wg sync.WaitGroup
		for range d.workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for q := range d.queue {
					d.deliver(q.ctx, q.env)
				}
			}()
		}

		<-ctx.Done()

		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		wg.Wait()
		d.log.Info("event dispatcher stopped")
		return nil
	}
}

// deliver runs on its own timeout so queued events still go out while the
// process is shutting down. parent is never canceled.
func (d *Dispatcher) deliver(parent context.Context, env Envelope) {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.pub.Publish(ctx, env)
	d.observer.EventPublished(env.EventType, err)
	if err != nil {
		d.log.ErrorContext(ctx, "event publish failed",
			logger.EventType(env.EventType),
			slog.String("event_id", env.EventID),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		return
	}
	d.log.DebugContext(ctx, "event delivered",
		logger.EventType(env.EventType),
		slog.String("event_id", env.EventID),
		logger.Duration(time.Since(start)),
	)
}
