// Package logger builds the service's *slog.Logger.
//
// New takes functional options (WithLevel, WithFormat, WithEnvironment,
// WithAttr, WithContextExtractors). FromConfig turns the LOG_LEVEL,
// LOG_FORMAT and APP_ENV environment settings into those options.
//
// Every logger is wrapped in LogHandlerDecorator, which runs registered
// ContextExtractor callbacks on each record. The HTTP layer registers one that
// adds the request id, so request-scoped logs correlate without passing ids
// around:
//
//	opts, err := logger.FromConfig(cfg)
//	if err != nil {
//		return err
//	}
//	log := logger.New(append(opts, logger.WithContextExtractors(httpapi.RequestIDExtractor()))...)
//	log.InfoContext(ctx, "file stored", logger.FileID(id), logger.Size(n))
//
// Helpers in attr.go (Error, FileID, ObjectKey, Reason, ...) keep attribute
// keys consistent across packages.
package logger
