package metadata_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filesvc/internal/metadata"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	runStoreContract(t, metadata.NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := metadata.NewMemoryStore()

	rec := newRecord("owner", "t", "", 3, sha('a'))
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	got.Filename = "mutated"

	again, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", again.Filename)
}

func TestMemoryStore_ConcurrentInserts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := metadata.NewMemoryStore()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Insert(ctx, newRecord("owner", "t", "", 2, sha('b'))))
		}()
	}
	wg.Wait()

	usage, err := store.UsageByOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(100), usage)
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := metadata.New(metadata.Config{Driver: metadata.DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &metadata.MemoryStore{}, s)

	_, err = metadata.New(metadata.Config{Driver: metadata.DriverPostgres}, nil)
	assert.ErrorIs(t, err, metadata.ErrUnknownDriver)

	_, err = metadata.New(metadata.Config{Driver: "sqlite"}, nil)
	assert.ErrorIs(t, err, metadata.ErrUnknownDriver)
}
