package filesvc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filesvc/internal/events"
	"github.com/dmitrymomot/filesvc/internal/metadata"
	"github.com/dmitrymomot/filesvc/internal/policy"
	"github.com/dmitrymomot/filesvc/pkg/file"
	"github.com/dmitrymomot/filesvc/pkg/logger"
)

// UploadRequest is one file to commit. DeclaredSize is provisional; pass a
// negative value when it is unknown. The stored size is always the number of
// bytes read from Body.
type UploadRequest struct {
	OwnerID      string
	Filename     string
	MIMEType     string
	DeclaredSize int64
	Association  policy.Association
	Body         io.Reader
}

// Upload validates, hashes and stores a file, then commits its record.
//
// The body is consumed exactly once into a spool file so the digest and the
// true size are known before anything is written to storage. When the same
// message already holds identical bytes, the new record shares the existing
// storage locator instead of writing a second copy. The metadata insert is
// the commit point; the file-added event is queued after it.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*metadata.Record, error) {
	start := s.now()
	filename := policy.CleanFilename(req.Filename)
	mimeType := policy.NormalizeMIME(req.MIMEType)
	assoc := req.Association

	log := s.log.With(logger.UserID(req.OwnerID), slog.String("filename", filename))

	if err := checkIDs(req.OwnerID, assoc); err != nil {
		log.InfoContext(ctx, "upload rejected", logger.Error(err))
		return nil, err
	}
	if v := s.policy.Declared(filename, req.DeclaredSize, req.MIMEType); v != nil {
		return nil, s.rejected(ctx, log, v)
	}

	spool, err := file.Spool(ctx, req.Body, s.cfg.SpoolDir, s.policy.MaxBytes())
	defer func() { _ = spool.Close() }()
	switch {
	case errors.Is(err, file.ErrLimitExceeded):
		return nil, s.rejected(ctx, log, s.policy.Size(spool.Size))
	case errors.Is(err, file.ErrFailedToCreateFile):
		log.ErrorContext(ctx, "spool failed", logger.Error(err))
		return nil, fail(KindStorage, err)
	case err != nil:
		log.WarnContext(ctx, "upload stream failed", logger.Error(err))
		return nil, fail(KindRead, err)
	}
	digest := spool.Digest
	log = log.With(logger.Hash(digest.SHA256), logger.Size(digest.Size))

	if v := s.policy.Size(digest.Size); v != nil {
		return nil, s.rejected(ctx, log, v)
	}
	used, err := s.usage(ctx, req.OwnerID)
	if err != nil {
		log.ErrorContext(ctx, "usage lookup failed", logger.Error(err))
		return nil, err
	}
	if v := s.policy.Quota(used, digest.Size); v != nil {
		return nil, s.rejected(ctx, log, v)
	}
	if v := s.policy.Association(assoc); v != nil {
		return nil, s.rejected(ctx, log, v)
	}

	rec := &metadata.Record{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		ChannelID: assoc.ChannelID,
		ThreadID:  assoc.ThreadID,
		MessageID: assoc.MessageID,
		Filename:  filename,
		MIMEType:  mimeType,
		Size:      digest.Size,
		SHA256:    digest.SHA256,
		Version:   1,
	}

	existing, err := s.reusable(ctx, assoc.MessageID, digest.SHA256)
	if err != nil {
		log.ErrorContext(ctx, "idempotency lookup failed", logger.Error(err))
		return nil, err
	}

	fresh := existing == nil
	if fresh {
		if err := s.put(ctx, rec, spool); err != nil {
			log.ErrorContext(ctx, "storage write failed", logger.ObjectKey(rec.ObjectKey), logger.Error(err))
			return nil, err
		}
	} else {
		rec.Bucket = existing.Bucket
		rec.ObjectKey = existing.ObjectKey
		rec.ReusedFrom = existing.ID
		if existing.ReusedFrom != uuid.Nil {
			rec.ReusedFrom = existing.ReusedFrom
		}
	}

	if err := s.insert(ctx, rec); err != nil {
		if fresh {
			// The object stays in storage unreferenced; reconciliation is external.
			log.WarnContext(ctx, "orphaned object after failed metadata commit",
				logger.ObjectKey(rec.ObjectKey), slog.String("bucket", rec.Bucket), logger.Error(err))
		} else {
			log.ErrorContext(ctx, "metadata commit failed", logger.Error(err))
		}
		return nil, fail(KindMetadata, err)
	}

	s.notifier.Publish(ctx, events.TypeFileAdded, addedPayload(rec))

	log.InfoContext(ctx, "file uploaded",
		logger.FileID(rec.ID),
		logger.ObjectKey(rec.ObjectKey),
		slog.Bool("reused", !fresh),
		logger.Duration(time.Since(start)),
	)
	return rec, nil
}

// reusable returns the record whose bytes an upload to messageID with digest
// may share, or nil.
func (s *Service) reusable(ctx context.Context, messageID, digest string) (*metadata.Record, error) {
	if messageID == "" {
		return nil, nil
	}

	mctx, cancel := s.metadataCtx(ctx)
	defer cancel()

	existing, err := s.store.FindByMessageAndHash(mctx, messageID, digest)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fail(KindMetadata, err)
	}
	if !policy.ShouldReuse(messageID, digest, existing.SHA256) {
		return nil, nil
	}
	return existing, nil
}

// checkIDs rejects identifiers the metadata store cannot hold, before any
// byte is spooled or written.
func checkIDs(ownerID string, a policy.Association) error {
	for _, id := range [...]struct{ field, value string }{
		{"owner_id", ownerID},
		{"channel_id", a.ChannelID},
		{"thread_id", a.ThreadID},
		{"message_id", a.MessageID},
	} {
		if err := metadata.CheckIDLength(id.field, id.value); err != nil {
			return fail(KindValidation, err)
		}
	}
	return nil
}

// put writes the spooled bytes under a fresh key derived from the record id.
func (s *Service) put(ctx context.Context, rec *metadata.Record, spool *file.Spooled) error {
	rec.ObjectKey = objectKey(rec.ID, rec.Filename)

	body, err := spool.Reader()
	if err != nil {
		return fail(KindStorage, err)
	}

	sctx, cancel := s.storageCtx(ctx)
	defer cancel()

	loc, err := s.storage.Put(sctx, rec.ObjectKey, body, rec.Size, rec.MIMEType)
	if err != nil {
		return fail(KindStorage, err)
	}
	rec.Bucket = loc.Namespace
	rec.ObjectKey = loc.Key
	return nil
}

func (s *Service) insert(ctx context.Context, rec *metadata.Record) error {
	mctx, cancel := s.metadataCtx(ctx)
	defer cancel()
	return s.store.Insert(mctx, rec)
}

func (s *Service) rejected(ctx context.Context, log *slog.Logger, v *policy.Violation) error {
	log.InfoContext(ctx, "upload rejected", logger.Reason(string(v.Code)))
	return invalid(v)
}
