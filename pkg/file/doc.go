// Package file is the object storage port of the service together with the
// content hashing it relies on.
//
// # Storage
//
// Storage has three capabilities: Put an object atomically under a fresh
// key, mint a time-limited PresignGet URL, and EnsureNamespace at startup.
// Two implementations are provided and New picks one from Config.Kind:
//
//   - LocalStorage writes under STORAGE_LOCAL_DIR/namespace. Puts go to a
//     temp file that is fsynced and renamed into place. Presigned links are
//     HMAC-signed tokens served by the blob endpoint (see LocalStorage.Open).
//   - S3Storage writes with PutObject and signs GetObject URLs with a
//     separate presign client bound to S3_PUBLIC_ENDPOINT, so the host in
//     the URL is the one clients can reach.
//
// S3 errors are classified into package sentinels (ErrBucketNotFound,
// ErrAccessDenied, ErrOperationTimeout, ...) so callers never see smithy
// types.
//
// # Hashing
//
// Sum streams a reader through SHA-256 in ChunkSize pieces. Spool does the
// same while copying into a temp file, which lets the upload pipeline learn
// the true size and digest before deciding whether to write to storage.
//
//	sp, err := file.Spool(ctx, body, "", maxBytes)
//	if err != nil {
//		return err
//	}
//	defer sp.Close()
//	r, _ := sp.Reader()
//	loc, err := storage.Put(ctx, key, r, sp.Size, contentType)
package file
