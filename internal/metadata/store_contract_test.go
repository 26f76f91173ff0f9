package metadata_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filesvc/internal/metadata"
)

func sha(c byte) string { return strings.Repeat(string(c), 64) }

func newRecord(owner, thread, message string, size int64, hash string) *metadata.Record {
	id := uuid.New()
	return &metadata.Record{
		ID:        id,
		OwnerID:   owner,
		ChannelID: "channel-1",
		ThreadID:  thread,
		MessageID: message,
		Filename:  "hello.txt",
		MIMEType:  "text/plain",
		Size:      size,
		SHA256:    hash,
		Bucket:    "chat-files",
		ObjectKey: id.String() + "/hello.txt",
	}
}

// runStoreContract exercises behavior every Store implementation shares. The
// store must be empty.
func runStoreContract(t *testing.T, store metadata.Store) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		rec := newRecord("owner-a", "thread-1", "", 11, sha('a'))
		require.NoError(t, store.Insert(ctx, rec))
		assert.False(t, rec.CreatedAt.IsZero())
		assert.Equal(t, 1, rec.Version)

		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, "thread-1", got.ThreadID)
		assert.Empty(t, got.MessageID)
		assert.Equal(t, int64(11), got.Size)
		assert.Equal(t, uuid.Nil, got.ReusedFrom)
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, metadata.ErrNotFound)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		bad := newRecord("owner-a", "", "msg", 1, sha('b'))
		assert.ErrorIs(t, store.Insert(ctx, bad), metadata.ErrInvalidRecord)

		bad = newRecord("owner-a", "t", "", 0, sha('b'))
		assert.ErrorIs(t, store.Insert(ctx, bad), metadata.ErrInvalidRecord)

		long := strings.Repeat("é", metadata.MaxIDLength+1)
		bad = newRecord("owner-a", long, "", 1, sha('b'))
		err := store.Insert(ctx, bad)
		assert.ErrorIs(t, err, metadata.ErrInvalidRecord)
		assert.ErrorIs(t, err, metadata.ErrIDTooLong)

		fits := newRecord(strings.Repeat("é", metadata.MaxIDLength), "t-fits", "", 1, sha('b'))
		assert.NoError(t, store.Insert(ctx, fits), "the limit counts characters, not bytes")
	})

	t.Run("object keys are not reused", func(t *testing.T) {
		first := newRecord("owner-a", "t", "", 1, sha('c'))
		require.NoError(t, store.Insert(ctx, first))

		dup := newRecord("owner-a", "t", "", 1, sha('c'))
		dup.ObjectKey = first.ObjectKey
		assert.ErrorIs(t, store.Insert(ctx, dup), metadata.ErrDuplicateKey)

		reuse := newRecord("owner-b", "t", "", 1, sha('c'))
		reuse.ObjectKey = first.ObjectKey
		reuse.ReusedFrom = first.ID
		assert.NoError(t, store.Insert(ctx, reuse), "reusing records share the locator")
	})

	t.Run("find by message and hash", func(t *testing.T) {
		rec := newRecord("owner-a", "thread-2", "msg-1", 5, sha('d'))
		require.NoError(t, store.Insert(ctx, rec))

		got, err := store.FindByMessageAndHash(ctx, "msg-1", sha('d'))
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)

		_, err = store.FindByMessageAndHash(ctx, "msg-1", sha('e'))
		assert.ErrorIs(t, err, metadata.ErrNotFound)
		_, err = store.FindByMessageAndHash(ctx, "msg-2", sha('d'))
		assert.ErrorIs(t, err, metadata.ErrNotFound)
	})

	t.Run("list requires a filter and orders newest first", func(t *testing.T) {
		_, err := store.List(ctx, metadata.Filter{})
		assert.ErrorIs(t, err, metadata.ErrMissingFilter)

		var ids []uuid.UUID
		for range 3 {
			rec := newRecord("owner-c", "thread-list", "msg-list", 1, sha('f'))
			rec.ObjectKey = rec.ID.String() + "/x"
			require.NoError(t, store.Insert(ctx, rec))
			ids = append(ids, rec.ID)
			time.Sleep(2 * time.Millisecond)
		}
		other := newRecord("owner-c", "thread-list", "", 1, sha('f'))
		require.NoError(t, store.Insert(ctx, other))

		byThread, err := store.List(ctx, metadata.Filter{ThreadID: "thread-list"})
		require.NoError(t, err)
		require.Len(t, byThread, 4)
		assert.Equal(t, other.ID, byThread[0].ID)
		assert.Equal(t, ids[2], byThread[1].ID)
		assert.Equal(t, ids[0], byThread[3].ID)

		byMessage, err := store.List(ctx, metadata.Filter{MessageID: "msg-list"})
		require.NoError(t, err)
		assert.Len(t, byMessage, 3)

		both, err := store.List(ctx, metadata.Filter{MessageID: "msg-list", ThreadID: "other-thread"})
		require.NoError(t, err)
		assert.Empty(t, both)

		limited, err := store.List(ctx, metadata.Filter{ThreadID: "thread-list", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("soft delete hides the record everywhere", func(t *testing.T) {
		rec := newRecord("owner-d", "thread-del", "msg-del", 7, sha('9'))
		require.NoError(t, store.Insert(ctx, rec))

		usage, err := store.UsageByOwner(ctx, "owner-d")
		require.NoError(t, err)
		assert.Equal(t, int64(7), usage)

		require.NoError(t, store.SoftDelete(ctx, rec.ID, time.Now()))

		_, err = store.Get(ctx, rec.ID)
		assert.ErrorIs(t, err, metadata.ErrNotFound)
		_, err = store.FindByMessageAndHash(ctx, "msg-del", sha('9'))
		assert.ErrorIs(t, err, metadata.ErrNotFound)
		list, err := store.List(ctx, metadata.Filter{ThreadID: "thread-del"})
		require.NoError(t, err)
		assert.Empty(t, list)
		usage, err = store.UsageByOwner(ctx, "owner-d")
		require.NoError(t, err)
		assert.Zero(t, usage)

		assert.ErrorIs(t, store.SoftDelete(ctx, rec.ID, time.Now()), metadata.ErrNotFound, "deleted_at is set once")
		assert.ErrorIs(t, store.SoftDelete(ctx, uuid.New(), time.Now()), metadata.ErrNotFound)
	})

	t.Run("usage sums active records per owner", func(t *testing.T) {
		for _, size := range []int64{10, 20, 30} {
			require.NoError(t, store.Insert(ctx, newRecord("owner-e", "t", "", size, sha('1'))))
		}
		usage, err := store.UsageByOwner(ctx, "owner-e")
		require.NoError(t, err)
		assert.Equal(t, int64(60), usage)

		usage, err = store.UsageByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, usage)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
