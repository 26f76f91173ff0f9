// Package pg bootstraps the PostgreSQL layer used by the metadata store.
//
// It wraps pgx/v5 connection pooling and goose/v3 migrations:
//
//   - Config is populated from PG_* environment variables.
//   - Connect opens a *pgxpool.Pool and retries with a linear back-off until
//     the database answers a ping.
//   - Migrate applies the embedded goose migrations through the same pool.
//
// Usage:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, metadata.Migrations, "migrations", log); err != nil {
//		return err
//	}
//
// IsDuplicateKeyError and IsNotFoundError classify pgx errors so that callers
// never have to import pgconn themselves.
package pg
