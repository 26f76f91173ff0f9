// Package filesvc implements the file lifecycle of the chat platform:
// upload with idempotent reuse, metadata reads, soft delete and presigned
// downloads.
//
// Upload order:
//
//  1. filename, declared size and MIME checks
//  2. stream spooled once while hashing (size capped at the max file size)
//  3. actual size, quota and association checks
//  4. reuse lookup on (message_id, sha256)
//  5. storage write under <record-id>/<filename>, skipped on reuse
//  6. metadata insert (the commit point)
//  7. files.added queued on the notifier
//
// A failed insert after a successful write leaves an unreferenced object in
// storage. It is logged with its key and never exposed to readers.
//
// Every returned error is an *Error. Match kinds with errors.Is against
// ErrValidation, ErrNotFound, ErrForbidden, ErrStorage, ErrMetadata and
// ErrRead; validation errors carry the *policy.Violation.
package filesvc
