package filesvc_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filesvc/internal/auth"
	"github.com/dmitrymomot/filesvc/internal/events"
	"github.com/dmitrymomot/filesvc/internal/filesvc"
	"github.com/dmitrymomot/filesvc/internal/metadata"
	"github.com/dmitrymomot/filesvc/internal/policy"
	"github.com/dmitrymomot/filesvc/pkg/file"
)

const helloHash = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
}

type notified struct {
	eventType string
	payload   any
}

func (n *recordingNotifier) Publish(_ context.Context, eventType string, payload any) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notified{eventType, payload})
	return true
}

func (n *recordingNotifier) all() []notified {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notified(nil), n.events...)
}

type fixture struct {
	svc      *filesvc.Service
	store    metadata.Store
	storage  *file.LocalStorage
	notifier *recordingNotifier
	baseDir  string
}

type fixtureOption func(*fixtureDeps)

type fixtureDeps struct {
	store   metadata.Store
	storage file.Storage
	policy  policy.Config
}

func withStore(wrap func(metadata.Store) metadata.Store) fixtureOption {
	return func(d *fixtureDeps) { d.store = wrap(d.store) }
}

func withStorage(wrap func(file.Storage) file.Storage) fixtureOption {
	return func(d *fixtureDeps) { d.storage = wrap(d.storage) }
}

func withQuota(q int64) fixtureOption {
	return func(d *fixtureDeps) { d.policy.QuotaBytes = q }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	baseDir := t.TempDir()
	local, err := file.NewLocalStorage(baseDir, "chat-files", "http://files.test", []byte("secret"))
	require.NoError(t, err)
	require.NoError(t, local.EnsureNamespace(context.Background()))

	deps := &fixtureDeps{
		store:   metadata.NewMemoryStore(),
		storage: local,
		policy: policy.Config{
			MaxBytes:    64,
			QuotaBytes:  1024,
			AllowedMIME: []string{"text/plain", "image/png"},
		},
	}
	for _, opt := range opts {
		opt(deps)
	}

	engine, err := policy.NewEngine(deps.policy)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc, err := filesvc.New(engine, deps.store, deps.storage, notifier, filesvc.Config{
		StorageTimeout:  time.Second,
		MetadataTimeout: time.Second,
		PresignTTL:      time.Hour,
		SpoolDir:        t.TempDir(),
	})
	require.NoError(t, err)

	return &fixture{svc: svc, store: deps.store, storage: local, notifier: notifier, baseDir: baseDir}
}

func (f *fixture) stored(t *testing.T, rec *metadata.Record) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.baseDir, rec.Bucket, filepath.FromSlash(rec.ObjectKey)))
	require.NoError(t, err)
	return data
}

func upload(owner, name, body string, assoc policy.Association) filesvc.UploadRequest {
	return filesvc.UploadRequest{
		OwnerID:      owner,
		Filename:     name,
		MIMEType:     "text/plain; charset=utf-8",
		DeclaredSize: -1,
		Association:  assoc,
		Body:         strings.NewReader(body),
	}
}

func violationCode(t *testing.T, err error) policy.Code {
	t.Helper()
	require.ErrorIs(t, err, filesvc.ErrValidation)
	e, ok := filesvc.AsError(err)
	require.True(t, ok)
	require.NotNil(t, e.Violation)
	return e.Violation.Code
}

func TestUpload_HelloWorld(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, err := f.svc.Upload(context.Background(),
		upload("u1", "hello.txt", "hello world", policy.Association{ChannelID: "c1", ThreadID: "T1"}))
	require.NoError(t, err)

	assert.Equal(t, helloHash, rec.SHA256)
	assert.Equal(t, int64(11), rec.Size)
	assert.Equal(t, "text/plain", rec.MIMEType)
	assert.Equal(t, "chat-files", rec.Bucket)
	assert.Equal(t, rec.ID.String()+"/hello.txt", rec.ObjectKey)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, uuid.Nil, rec.ReusedFrom)
	assert.False(t, rec.CreatedAt.IsZero())

	stored := f.stored(t, rec)
	sum := sha256.Sum256(stored)
	assert.Equal(t, rec.SHA256, hex.EncodeToString(sum[:]), "hash matches the bytes in storage")

	got, err := f.svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	evs := f.notifier.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeFileAdded, evs[0].eventType)
	added, ok := evs[0].payload.(events.FileAdded)
	require.True(t, ok)
	assert.Equal(t, rec.ID.String(), added.FileID)
	assert.Equal(t, helloHash, added.SHA256)
	assert.Equal(t, "T1", added.ThreadID)
}

func TestUpload_Rejections(t *testing.T) {
	t.Parallel()

	assoc := policy.Association{ChannelID: "c1", ThreadID: "t1"}
	tests := []struct {
		name string
		req  filesvc.UploadRequest
		want policy.Code
	}{
		{"missing channel", upload("u1", "a.txt", "data", policy.Association{}), policy.CodeChannelRequired},
		{"message without thread", upload("u1", "a.txt", "data", policy.Association{ChannelID: "c1", MessageID: "m1"}), policy.CodeThreadRequiredWithMessage},
		{"empty file", upload("u1", "a.txt", "", assoc), policy.CodeFileEmpty},
		{"too large", upload("u1", "a.txt", strings.Repeat("x", 65), assoc), policy.CodeFileTooLarge},
		{"only extension", upload("u1", ".txt", "data", assoc), policy.CodeFilenameOnlyExtension},
		{"path in name", upload("u1", "../a.txt", "data", assoc), policy.CodeFilenameInvalidChars},
		{"long name", upload("u1", strings.Repeat("a", 252)+".txt", "data", assoc), policy.CodeFilenameTooLong},
		{"blank name", upload("u1", "   ", "data", assoc), policy.CodeFilenameEmpty},
		{"mime not allowed", func() filesvc.UploadRequest {
			r := upload("u1", "a.exe", "data", assoc)
			r.MIMEType = "application/x-msdownload"
			return r
		}(), policy.CodeMIMENotAllowed},
		{"mime missing", func() filesvc.UploadRequest {
			r := upload("u1", "a.txt", "data", assoc)
			r.MIMEType = ""
			return r
		}(), policy.CodeMIMEMissing},
		{"declared too large", func() filesvc.UploadRequest {
			r := upload("u1", "a.txt", "data", assoc)
			r.DeclaredSize = 1 << 20
			return r
		}(), policy.CodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			_, err := f.svc.Upload(context.Background(), tt.req)
			assert.Equal(t, tt.want, violationCode(t, err))
			assert.Empty(t, f.notifier.all())

			entries, err := os.ReadDir(filepath.Join(f.baseDir, "chat-files"))
			require.NoError(t, err)
			assert.Empty(t, entries, "rejected uploads never reach storage")
		})
	}
}

func TestUpload_FilenameBoundary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	assoc := policy.Association{ChannelID: "c1"}

	name := strings.Repeat("a", 251) + ".txt"
	require.Len(t, name, 255)
	_, err := f.svc.Upload(context.Background(), upload("u1", name, "data", assoc))
	require.NoError(t, err)

	_, err = f.svc.Upload(context.Background(), upload("u1", "a"+name, "data", assoc))
	assert.Equal(t, policy.CodeFilenameTooLong, violationCode(t, err))
}

func TestUpload_KeyFromAcceptedFilename(t *testing.T) {
	t.Parallel()

	multibyte := strings.Repeat("é", 251) + ".txt"
	require.Equal(t, 255, utf8.RuneCountInString(multibyte))
	require.Greater(t, len(multibyte), 255)

	tests := []struct {
		name     string
		filename string
		wantKey  func(t *testing.T, key string)
	}{
		{"dot dot", "..", func(t *testing.T, key string) {
			assert.Equal(t, "file", path.Base(key))
		}},
		{"three dots", "...", func(t *testing.T, key string) {
			assert.Equal(t, "file", path.Base(key))
		}},
		{"255 multibyte characters", multibyte, func(t *testing.T, key string) {
			base := path.Base(key)
			assert.LessOrEqual(t, len(base), 200)
			assert.True(t, strings.HasSuffix(base, ".txt"))
			assert.True(t, utf8.ValidString(base))
			assert.True(t, strings.HasPrefix(base, "é"))
		}},
		{"255 ascii characters", strings.Repeat("b", 251) + ".txt", func(t *testing.T, key string) {
			assert.Equal(t, strings.Repeat("b", 196)+".txt", path.Base(key))
		}},
		{"short name kept", "notes.v2.txt", func(t *testing.T, key string) {
			assert.Equal(t, "notes.v2.txt", path.Base(key))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			rec, err := f.svc.Upload(context.Background(),
				upload("u1", tt.filename, "data", policy.Association{ChannelID: "c1"}))
			require.NoError(t, err)

			assert.Equal(t, tt.filename, rec.Filename, "record keeps the uploaded name")
			assert.True(t, strings.HasPrefix(rec.ObjectKey, rec.ID.String()+"/"))
			tt.wantKey(t, rec.ObjectKey)
			assert.Equal(t, []byte("data"), f.stored(t, rec))
		})
	}
}

func TestUpload_ActualSizeWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := upload("u1", "a.txt", "twelve bytes", policy.Association{ChannelID: "c1"})
	req.DeclaredSize = 3
	rec, err := f.svc.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(12), rec.Size)
}

func TestUpload_Quota(t *testing.T) {
	t.Parallel()
	f := newFixture(t, withQuota(20))
	ctx := context.Background()
	assoc := policy.Association{ChannelID: "c1"}

	_, err := f.svc.Upload(ctx, upload("u1", "a.txt", strings.Repeat("a", 15), assoc))
	require.NoError(t, err)

	_, err = f.svc.Upload(ctx, upload("u1", "b.txt", strings.Repeat("b", 6), assoc))
	assert.Equal(t, policy.CodeQuotaExceeded, violationCode(t, err))

	rec, err := f.svc.Upload(ctx, upload("u1", "c.txt", strings.Repeat("c", 5), assoc))
	require.NoError(t, err, "usage + size == quota is accepted")

	_, err = f.svc.Upload(ctx, upload("u2", "d.txt", strings.Repeat("d", 20), assoc))
	require.NoError(t, err, "quota is per owner")

	// Deleted files free their share.
	require.NoError(t, f.svc.Delete(ctx, rec.ID, auth.Identity{UserID: "u1"}))
	_, err = f.svc.Upload(ctx, upload("u1", "e.txt", strings.Repeat("e", 5), assoc))
	require.NoError(t, err)

	usage, err := f.svc.Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), usage.UsedBytes)
	assert.Equal(t, int64(20), usage.QuotaBytes)
	assert.Zero(t, usage.AvailableBytes)
	assert.Equal(t, int64(64), usage.MaxFileBytes)
}

func TestUpload_IdempotentPerMessage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	assoc := policy.Association{ChannelID: "c1", ThreadID: "t1", MessageID: "m1"}

	first, err := f.svc.Upload(ctx, upload("u1", "a.txt", "same bytes", assoc))
	require.NoError(t, err)

	second, err := f.svc.Upload(ctx, upload("u2", "b.txt", "same bytes", assoc))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Bucket, second.Bucket)
	assert.Equal(t, first.ObjectKey, second.ObjectKey)
	assert.Equal(t, first.ID, second.ReusedFrom)
	assert.Equal(t, "b.txt", second.Filename)

	third, err := f.svc.Upload(ctx, upload("u1", "c.txt", "same bytes", assoc))
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ReusedFrom, "reuse points at the record that owns the bytes")

	t.Run("different content on the same message", func(t *testing.T) {
		other, err := f.svc.Upload(ctx, upload("u1", "a.txt", "other bytes", assoc))
		require.NoError(t, err)
		assert.NotEqual(t, first.ObjectKey, other.ObjectKey)
		assert.Equal(t, uuid.Nil, other.ReusedFrom)
	})

	t.Run("same content on another message", func(t *testing.T) {
		other, err := f.svc.Upload(ctx, upload("u1", "a.txt", "same bytes",
			policy.Association{ChannelID: "c1", ThreadID: "t1", MessageID: "m2"}))
		require.NoError(t, err)
		assert.NotEqual(t, first.ObjectKey, other.ObjectKey)
	})

	t.Run("same content without a message", func(t *testing.T) {
		other, err := f.svc.Upload(ctx, upload("u1", "a.txt", "same bytes",
			policy.Association{ChannelID: "c1", ThreadID: "t1"}))
		require.NoError(t, err)
		assert.NotEqual(t, first.ObjectKey, other.ObjectKey)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("owner deletes then reads", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, err := f.svc.Upload(ctx, upload("u1", "a.txt", "data", policy.Association{ChannelID: "c1", ThreadID: "t1"}))
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, rec.ID, auth.Identity{UserID: "u1"}))

		_, err = f.svc.Get(ctx, rec.ID)
		assert.ErrorIs(t, err, filesvc.ErrNotFound)
		err = f.svc.Delete(ctx, rec.ID, auth.Identity{UserID: "u1"})
		assert.ErrorIs(t, err, filesvc.ErrNotFound, "already deleted looks like never existed")
		_, err = f.svc.PresignDownload(ctx, rec.ID)
		assert.ErrorIs(t, err, filesvc.ErrNotFound)

		list, err := f.svc.List(ctx, metadata.Filter{ThreadID: "t1"})
		require.NoError(t, err)
		assert.Empty(t, list)

		evs := f.notifier.all()
		require.Len(t, evs, 2)
		assert.Equal(t, events.TypeFileDeleted, evs[1].eventType)
		deleted, ok := evs[1].payload.(events.FileDeleted)
		require.True(t, ok)
		assert.Equal(t, rec.ID.String(), deleted.FileID)
		assert.Equal(t, "u1", deleted.DeletedBy)
		assert.False(t, deleted.DeletedAt.IsZero())

		assert.NotEmpty(t, f.stored(t, rec), "bytes are kept after soft delete")
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, err := f.svc.Upload(ctx, upload("u1", "a.txt", "data", policy.Association{ChannelID: "c1"}))
		require.NoError(t, err)

		err = f.svc.Delete(ctx, rec.ID, auth.Identity{UserID: "u2", Roles: []string{"member"}})
		assert.ErrorIs(t, err, filesvc.ErrForbidden)

		_, err = f.svc.Get(ctx, rec.ID)
		assert.NoError(t, err)
	})

	t.Run("moderator may delete", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, err := f.svc.Upload(ctx, upload("u1", "a.txt", "data", policy.Association{ChannelID: "c1"}))
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, rec.ID, auth.Identity{UserID: "mod", Roles: []string{auth.RoleModerator}}))
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		err := f.svc.Delete(ctx, uuid.New(), auth.Identity{UserID: "u1", Roles: []string{auth.RoleAdmin}})
		assert.ErrorIs(t, err, filesvc.ErrNotFound)
	})
}

func TestPresignDownload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Upload(ctx, upload("u1", "hello.txt", "hello world", policy.Association{ChannelID: "c1"}))
	require.NoError(t, err)

	dl, err := f.svc.PresignDownload(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, dl.ExpiresIn)
	assert.True(t, strings.HasPrefix(dl.URL, "http://files.test/v1/blobs/chat-files/"+rec.ID.String()+"/hello.txt?token="))

	_, err = f.svc.PresignDownload(ctx, uuid.New())
	assert.ErrorIs(t, err, filesvc.ErrNotFound)
}

func TestList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, metadata.Filter{})
	assert.Equal(t, policy.CodeMissingFilter, violationCode(t, err))

	for _, name := range []string{"a.txt", "b.txt"} {
		_, err := f.svc.Upload(ctx, upload("u1", name, name, policy.Association{ChannelID: "c1", ThreadID: "t1", MessageID: "m1"}))
		require.NoError(t, err)
	}
	list, err := f.svc.List(ctx, metadata.Filter{MessageID: "m1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b.txt", list[0].Filename)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, withQuota(100))
	ctx := context.Background()

	violations, err := f.svc.Validate(ctx, filesvc.ValidateRequest{
		OwnerID:     "u1",
		Filename:    "ok.txt",
		Size:        10,
		MIMEType:    "text/plain",
		Association: policy.Association{ChannelID: "c1"},
	})
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = f.svc.Validate(ctx, filesvc.ValidateRequest{
		OwnerID:     "u1",
		Filename:    ".txt",
		Size:        200,
		MIMEType:    "application/zip",
		Association: policy.Association{MessageID: "m1"},
	})
	require.NoError(t, err)

	var codes []policy.Code
	for _, v := range violations {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []policy.Code{
		policy.CodeFilenameOnlyExtension,
		policy.CodeFileTooLarge,
		policy.CodeMIMENotAllowed,
		policy.CodeQuotaExceeded,
		policy.CodeChannelRequired,
	}, codes)
}

type failingPutStorage struct {
	file.Storage
	err error
}

func (s failingPutStorage) Put(context.Context, string, io.Reader, int64, string) (file.Locator, error) {
	return file.Locator{}, s.err
}

type failingInsertStore struct {
	metadata.Store
}

func (failingInsertStore) Insert(context.Context, *metadata.Record) error {
	return errors.New("connection reset")
}

type slowStorage struct {
	file.Storage
}

func (slowStorage) Put(ctx context.Context, _ string, _ io.Reader, _ int64, _ string) (file.Locator, error) {
	<-ctx.Done()
	return file.Locator{}, ctx.Err()
}

func TestUpload_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assoc := policy.Association{ChannelID: "c1"}

	t.Run("storage failure leaves no record", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, withStorage(func(s file.Storage) file.Storage {
			return failingPutStorage{Storage: s, err: file.ErrServiceUnavailable}
		}))

		_, err := f.svc.Upload(ctx, upload("u1", "a.txt", "data", assoc))
		require.ErrorIs(t, err, filesvc.ErrStorage)
		e, ok := filesvc.AsError(err)
		require.True(t, ok)
		assert.True(t, e.Retryable())
		assert.ErrorIs(t, e.Cause(), file.ErrServiceUnavailable)
		assert.NotErrorIs(t, err, file.ErrServiceUnavailable, "collaborator errors stay behind the boundary")

		usage, err := f.store.UsageByOwner(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, usage)
		assert.Empty(t, f.notifier.all())
	})

	t.Run("storage timeout", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, withStorage(func(s file.Storage) file.Storage { return slowStorage{Storage: s} }))
		_, err := f.svc.Upload(ctx, upload("u1", "a.txt", "data", assoc))
		assert.ErrorIs(t, err, filesvc.ErrStorage)
	})

	t.Run("metadata failure after write", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, withStore(func(s metadata.Store) metadata.Store { return failingInsertStore{Store: s} }))

		_, err := f.svc.Upload(ctx, upload("u1", "a.txt", "data", assoc))
		require.ErrorIs(t, err, filesvc.ErrMetadata)
		assert.Empty(t, f.notifier.all())
	})

	t.Run("broken stream", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		req := upload("u1", "a.txt", "", assoc)
		req.Body = io.MultiReader(strings.NewReader("part"), errReader{})

		_, err := f.svc.Upload(ctx, req)
		assert.ErrorIs(t, err, filesvc.ErrRead)
	})
}

func TestUpload_OverlongIDs(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", metadata.MaxIDLength+1)
	tests := []struct {
		name  string
		owner string
		assoc policy.Association
	}{
		{"owner", long, policy.Association{ChannelID: "c1"}},
		{"channel", "u1", policy.Association{ChannelID: long}},
		{"thread", "u1", policy.Association{ChannelID: "c1", ThreadID: long}},
		{"message", "u1", policy.Association{ChannelID: "c1", ThreadID: "t1", MessageID: long}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			_, err := f.svc.Upload(context.Background(), upload(tt.owner, "a.txt", "data", tt.assoc))
			require.ErrorIs(t, err, filesvc.ErrValidation)
			e, ok := filesvc.AsError(err)
			require.True(t, ok)
			assert.Nil(t, e.Violation)
			assert.False(t, e.Retryable())
			assert.ErrorIs(t, e.Cause(), metadata.ErrIDTooLong)

			entries, err := os.ReadDir(filepath.Join(f.baseDir, "chat-files"))
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing reaches storage")

			_, err = f.svc.Validate(context.Background(), filesvc.ValidateRequest{
				OwnerID: tt.owner, Filename: "a.txt", Size: 4, MIMEType: "text/plain", Association: tt.assoc,
			})
			assert.ErrorIs(t, err, filesvc.ErrValidation)
		})
	}

	t.Run("limit is inclusive", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fits := strings.Repeat("y", metadata.MaxIDLength)
		_, err := f.svc.Upload(context.Background(),
			upload(fits, "a.txt", "data", policy.Association{ChannelID: fits, ThreadID: fits, MessageID: fits}))
		assert.NoError(t, err)
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()
	_, err := filesvc.New(nil, nil, nil, nil, filesvc.Config{})
	assert.ErrorIs(t, err, filesvc.ErrInvalidConfig)
}
