package metadata

import "errors"

var (
	ErrNotFound      = errors.New("file record not found")
	ErrDuplicateKey  = errors.New("object key already in use")
	ErrMissingFilter = errors.New("message_id or thread_id filter is required")
	ErrInvalidRecord = errors.New("invalid file record")
	ErrIDTooLong     = errors.New("identifier is too long")
	ErrQuery         = errors.New("metadata query failed")
	ErrUnknownDriver = errors.New("unknown metadata driver")
)
