package filesvc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filesvc/internal/auth"
	"github.com/dmitrymomot/filesvc/internal/events"
	"github.com/dmitrymomot/filesvc/internal/metadata"
	"github.com/dmitrymomot/filesvc/internal/policy"
	"github.com/dmitrymomot/filesvc/pkg/file"
	"github.com/dmitrymomot/filesvc/pkg/logger"
)

// Notifier accepts events for asynchronous delivery. It must not block.
type Notifier interface {
	Publish(ctx context.Context, eventType string, payload any) bool
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service runs the upload, delete and download protocols on top of the
// policy engine, storage port, metadata store and notifier. It holds no
// per-caller state and is safe for concurrent use.
type Service struct {
	policy   *policy.Engine
	store    metadata.Store
	storage  file.Storage
	notifier Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

func New(engine *policy.Engine, store metadata.Store, storage file.Storage, notifier Notifier, cfg Config, opts ...Option) (*Service, error) {
	if engine == nil || store == nil || storage == nil || notifier == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("policy, store, storage and notifier are required"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		policy:   engine,
		store:    store,
		storage:  storage,
		notifier: notifier,
		cfg:      cfg,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StorageKind reports the storage backend, used to render storage URIs.
func (s *Service) StorageKind() string { return s.storage.Kind() }

// MaxBytes is the largest accepted file.
func (s *Service) MaxBytes() int64 { return s.policy.MaxBytes() }

func (s *Service) metadataCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.MetadataTimeout)
}

func (s *Service) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StorageTimeout)
}

// Get returns an active record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*metadata.Record, error) {
	mctx, cancel := s.metadataCtx(ctx)
	defer cancel()

	rec, err := s.store.Get(mctx, id)
	if err != nil {
		return nil, s.metadataError(err)
	}
	return rec, nil
}

// List returns active records for a message and/or thread, newest first.
func (s *Service) List(ctx context.Context, f metadata.Filter) ([]*metadata.Record, error) {
	mctx, cancel := s.metadataCtx(ctx)
	defer cancel()

	recs, err := s.store.List(mctx, f)
	if errors.Is(err, metadata.ErrMissingFilter) {
		return nil, invalid(&policy.Violation{
			Code:    policy.CodeMissingFilter,
			Message: "message_id or thread_id is required",
		})
	}
	if err != nil {
		return nil, fail(KindMetadata, err)
	}
	return recs, nil
}

// Delete soft-deletes a record. Existence is checked before authorization:
// a caller without permission learns that the file exists.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, caller auth.Identity) error {
	log := s.log.With(logger.FileID(id), logger.UserID(caller.UserID))

	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanDelete(caller.UserID, rec.OwnerID, caller.Roles) {
		log.WarnContext(ctx, "delete forbidden", slog.String("owner_id", rec.OwnerID))
		return fail(KindForbidden, nil)
	}

	at := s.now().UTC()
	mctx, cancel := s.metadataCtx(ctx)
	defer cancel()
	if err := s.store.SoftDelete(mctx, id, at); err != nil {
		if !errors.Is(err, metadata.ErrNotFound) {
			log.ErrorContext(ctx, "soft delete failed", logger.Error(err))
		}
		return s.metadataError(err)
	}

	s.notifier.Publish(ctx, events.TypeFileDeleted, deletedPayload(rec, caller.UserID, at))
	log.InfoContext(ctx, "file deleted")
	return nil
}

// Download is a presigned, time-limited URL for one record.
type Download struct {
	URL       string
	ExpiresIn time.Duration
	ExpiresAt time.Time
}

// PresignDownload mints a download URL for an active record.
func (s *Service) PresignDownload(ctx context.Context, id uuid.UUID) (*Download, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.storageCtx(ctx)
	defer cancel()

	issued := s.now()
	url, err := s.storage.PresignGet(sctx, rec.ObjectKey, s.cfg.PresignTTL, rec.Filename)
	if err != nil {
		s.log.ErrorContext(ctx, "presign failed", logger.FileID(id), logger.ObjectKey(rec.ObjectKey), logger.Error(err))
		return nil, fail(KindStorage, err)
	}
	return &Download{URL: url, ExpiresIn: s.cfg.PresignTTL, ExpiresAt: issued.Add(s.cfg.PresignTTL).UTC()}, nil
}

// Usage is a caller's quota snapshot.
type Usage struct {
	UsedBytes      int64
	QuotaBytes     int64
	AvailableBytes int64
	MaxFileBytes   int64
}

func (s *Service) Usage(ctx context.Context, ownerID string) (*Usage, error) {
	used, err := s.usage(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	quota := s.policy.QuotaBytes()
	return &Usage{
		UsedBytes:      used,
		QuotaBytes:     quota,
		AvailableBytes: max(0, quota-used),
		MaxFileBytes:   s.policy.MaxBytes(),
	}, nil
}

func (s *Service) usage(ctx context.Context, ownerID string) (int64, error) {
	mctx, cancel := s.metadataCtx(ctx)
	defer cancel()

	used, err := s.store.UsageByOwner(mctx, ownerID)
	if err != nil {
		return 0, fail(KindMetadata, err)
	}
	return used, nil
}

// ValidateRequest describes a file the caller intends to upload.
type ValidateRequest struct {
	OwnerID     string
	Filename    string
	Size        int64
	MIMEType    string
	Association policy.Association
}

// Validate runs every policy check against declared metadata and returns all
// violations. An empty result means the upload would currently be accepted.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) ([]*policy.Violation, error) {
	if err := checkIDs(req.OwnerID, req.Association); err != nil {
		return nil, err
	}
	used, err := s.usage(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	return s.policy.Check(policy.Input{
		Filename:     req.Filename,
		Size:         req.Size,
		MIMEType:     req.MIMEType,
		CurrentUsage: used,
		Association:  req.Association,
	}), nil
}

// Ping checks the metadata store.
func (s *Service) Ping(ctx context.Context) error {
	mctx, cancel := s.metadataCtx(ctx)
	defer cancel()
	if err := s.store.Ping(mctx); err != nil {
		return fail(KindMetadata, err)
	}
	return nil
}

func (s *Service) metadataError(err error) error {
	if errors.Is(err, metadata.ErrNotFound) {
		return fail(KindNotFound, nil)
	}
	return fail(KindMetadata, err)
}
