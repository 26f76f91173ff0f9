package events

import "errors"

var (
	ErrUnknownBroker     = errors.New("unknown events broker")
	ErrInvalidConfig     = errors.New("invalid events configuration")
	ErrEncodePayload     = errors.New("failed to encode event payload")
	ErrPublishFailed     = errors.New("failed to publish event")
	ErrBrokerUnavailable = errors.New("events broker unavailable")
	ErrAlreadyRunning    = errors.New("dispatcher already running")
	ErrNilPublisher      = errors.New("publisher is nil")
)
