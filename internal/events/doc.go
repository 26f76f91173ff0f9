// Package events announces file lifecycle facts to other services.
//
// Every event travels inside an Envelope:
//
//	{"event_id": "...", "event_type": "files.added", "occurred_at": "...", "service": "filesvc", "payload": {...}}
//
// Delivery is best effort. Callers hand events to a Dispatcher, which queues
// them in a bounded buffer and publishes from a small worker pool. A full
// buffer drops the event and logs it; a failed publish is logged and never
// reported back to the caller.
//
// Three publishers are available and selected with EVENTS_BROKER:
//
//   - log: writes events to the service log (development default)
//   - redis: XADD to a Redis stream, one field per envelope key
//   - amqp: JSON envelope on a durable topic exchange, routed by event type
//
// Usage:
//
//	pub, err := events.NewPublisher(cfg, rdb, log)
//	d := events.NewDispatcher(pub, events.WithBuffer(cfg.Buffer), events.WithWorkers(cfg.Workers))
//	g.Go(d.Run(ctx))
//	d.Publish(ctx, events.TypeFileAdded, events.FileAdded{...})
package events
