package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ServiceName is stamped on every envelope.
const ServiceName = "filesvc"

const (
	TypeFileAdded   = "files.added"
	TypeFileDeleted = "files.deleted"
)

// Envelope wraps a payload with delivery metadata. Payload is encoded when
// the envelope is built so later changes to the source value are not seen by
// subscribers.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Service    string          `json:"service"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload and assigns a fresh event id.
func NewEnvelope(eventType string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Join(ErrEncodePayload, err)
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: at.UTC(),
		Service:    ServiceName,
		Payload:    raw,
	}, nil
}

// FileAdded is published after an upload commits.
type FileAdded struct {
	FileID    string    `json:"file_id"`
	OwnerID   string    `json:"owner_id"`
	ChannelID string    `json:"channel_id"`
	ThreadID  string    `json:"thread_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Filename  string    `json:"filename"`
	MIMEType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"hash_sha256"`
	CreatedAt time.Time `json:"created_at"`
}

// FileDeleted is published after a soft delete commits.
type FileDeleted struct {
	FileID    string    `json:"file_id"`
	ChannelID string    `json:"channel_id"`
	ThreadID  string    `json:"thread_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	DeletedBy string    `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
}
