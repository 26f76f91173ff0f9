// Package metadata is the durable record of every stored file.
//
// Store is implemented by PostgresStore (pgx, schema in Migrations applied
// with goose) and MemoryStore. Records are only ever inserted or
// soft-deleted; every read path filters out rows with deleted_at set, so a
// deleted file looks exactly like one that never existed.
//
// Object keys are unique among records that own their bytes. A record
// created by idempotent reuse carries ReusedFrom and shares the locator of
// the record it reuses.
package metadata
