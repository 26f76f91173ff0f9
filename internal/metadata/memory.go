package metadata

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and single-node development.
// It enforces the same invariants as the Postgres schema.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	keys    map[string]uuid.UUID // bucket/key of records that own their bytes
	now     func() time.Time
	last    time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]*Record),
		keys:    make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (s *MemoryStore) Insert(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrDuplicateKey, rec.ID)
	}
	locator := rec.Bucket + "/" + rec.ObjectKey
	if rec.ReusedFrom == uuid.Nil {
		if _, ok := s.keys[locator]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, locator)
		}
		s.keys[locator] = rec.ID
	} else if _, ok := s.records[rec.ReusedFrom]; !ok {
		return fmt.Errorf("%w: reused record %s does not exist", ErrInvalidRecord, rec.ReusedFrom)
	}

	// created_at must be strictly increasing so newest-first ordering is stable.
	created := s.now().UTC()
	if !created.After(s.last) {
		created = s.last.Add(time.Microsecond)
	}
	s.last = created
	rec.CreatedAt = created
	stored := *rec
	s.records[rec.ID] = &stored
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || !rec.Active() {
		return nil, ErrNotFound
	}
	return clone(rec), nil
}

func (s *MemoryStore) FindByMessageAndHash(ctx context.Context, messageID, sha256 string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *Record
	for _, rec := range s.records {
		if !rec.Active() || rec.MessageID != messageID || rec.SHA256 != sha256 {
			continue
		}
		if found == nil || rec.CreatedAt.Before(found.CreatedAt) {
			found = rec
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return clone(found), nil
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := f.validate()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []*Record
	for _, rec := range s.records {
		if !rec.Active() {
			continue
		}
		if f.MessageID != "" && rec.MessageID != f.MessageID {
			continue
		}
		if f.ThreadID != "" && rec.ThreadID != f.ThreadID {
			continue
		}
		out = append(out, clone(rec))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(b.ID[:], a.ID[:])
	})
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || !rec.Active() {
		return ErrNotFound
	}
	at = at.UTC()
	rec.DeletedAt = &at
	return nil
}

func (s *MemoryStore) UsageByOwner(ctx context.Context, ownerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, rec := range s.records {
		if rec.Active() && rec.OwnerID == ownerID {
			total += rec.Size
		}
	}
	return total, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func clone(rec *Record) *Record {
	c := *rec
	if rec.DeletedAt != nil {
		at := *rec.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}
