package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Record is the durable description of one stored file. Once DeletedAt is
// set the record is frozen and invisible to every read.
type Record struct {
	ID        uuid.UUID
	OwnerID   string
	ChannelID string
	ThreadID  string // "" when absent
	MessageID string // "" when absent; requires ThreadID
	Filename  string
	MIMEType  string
	Size      int64
	SHA256    string
	Bucket    string
	ObjectKey string
	Version   int
	// ReusedFrom is the record whose bytes this one shares, uuid.Nil when the
	// record owns a freshly written object.
	ReusedFrom uuid.UUID
	CreatedAt  time.Time
	DeletedAt  *time.Time
}

// Active reports whether the record has not been soft-deleted.
func (r *Record) Active() bool { return r.DeletedAt == nil }

// Filter selects records by association. At least one field is required;
// when both are set both must match.
type Filter struct {
	MessageID string
	ThreadID  string
	Limit     int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Store persists file records. Every read ignores soft-deleted rows.
type Store interface {
	// Insert stores a new record and fills CreatedAt.
	Insert(ctx context.Context, rec *Record) error
	// Get returns the active record or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	// FindByMessageAndHash returns the oldest active record on messageID with
	// the given digest, or ErrNotFound.
	FindByMessageAndHash(ctx context.Context, messageID, sha256 string) (*Record, error)
	// List returns active records matching f, newest first.
	List(ctx context.Context, f Filter) ([]*Record, error)
	// SoftDelete sets deleted_at on an active record. Deleting a missing or
	// already deleted record returns ErrNotFound.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	// UsageByOwner sums the size of the owner's active records.
	UsageByOwner(ctx context.Context, ownerID string) (int64, error)
	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

func (f Filter) validate() (Filter, error) {
	if f.MessageID == "" && f.ThreadID == "" {
		return f, ErrMissingFilter
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	return f, nil
}

// MaxIDLength is the width, in characters, of the owner, channel, thread and
// message columns.
const MaxIDLength = 64

// CheckIDLength rejects a value that would not fit an id column.
func CheckIDLength(field, value string) error {
	if utf8.RuneCountInString(value) > MaxIDLength {
		return fmt.Errorf("%w: %s is longer than %d characters", ErrIDTooLong, field, MaxIDLength)
	}
	return nil
}

func validateRecord(rec *Record) error {
	switch {
	case rec == nil:
		return ErrInvalidRecord
	case rec.ID == uuid.Nil:
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	case rec.OwnerID == "" || rec.ChannelID == "":
		return fmt.Errorf("%w: owner and channel are required", ErrInvalidRecord)
	case rec.MessageID != "" && rec.ThreadID == "":
		return fmt.Errorf("%w: message requires thread", ErrInvalidRecord)
	case rec.Size <= 0:
		return fmt.Errorf("%w: size must be positive", ErrInvalidRecord)
	case len(rec.SHA256) != 64:
		return fmt.Errorf("%w: sha256 must be 64 hex characters", ErrInvalidRecord)
	case rec.Bucket == "" || rec.ObjectKey == "":
		return fmt.Errorf("%w: storage locator is required", ErrInvalidRecord)
	}
	for _, id := range [][2]string{
		{"owner_id", rec.OwnerID},
		{"channel_id", rec.ChannelID},
		{"thread_id", rec.ThreadID},
		{"message_id", rec.MessageID},
	} {
		if err := CheckIDLength(id[0], id[1]); err != nil {
			return errors.Join(ErrInvalidRecord, err)
		}
	}

	if rec.Version == 0 {
		rec.Version = 1
	}
	return nil
}
