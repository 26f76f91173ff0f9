package policy

import "fmt"

// Code is a stable, machine-readable reason for rejecting an upload.
type Code string

const (
	CodeFilenameEmpty         Code = "FILENAME_EMPTY"
	CodeFilenameTooLong       Code = "FILENAME_TOO_LONG"
	CodeFilenameInvalidChars  Code = "FILENAME_INVALID_CHARS"
	CodeFilenameOnlyExtension Code = "FILENAME_ONLY_EXTENSION"

	CodeFileEmpty    Code = "FILE_EMPTY"
	CodeFileTooLarge Code = "FILE_TOO_LARGE"

	CodeMIMEMissing    Code = "MIME_TYPE_MISSING"
	CodeMIMENotAllowed Code = "MIME_TYPE_NOT_ALLOWED"

	CodeQuotaExceeded Code = "QUOTA_EXCEEDED"

	CodeChannelRequired           Code = "CANAL_ID_REQUIRED"
	CodeThreadRequiredWithMessage Code = "HILO_ID_REQUIRED_WITH_MESSAGE"

	// CodeMissingFilter is not produced by a validator; listing requires at
	// least one association filter.
	CodeMissingFilter Code = "MISSING_FILTER"
)

// Violation is a failed check: reason code, human message and the values
// that caused it (limits, actual sizes) for the boundary to render.
type Violation struct {
	Code    Code
	Message string
	Context map[string]any
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

func violation(code Code, msg string, kv ...any) *Violation {
	v := &Violation{Code: code, Message: msg}
	if len(kv) > 0 {
		v.Context = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			v.Context[kv[i].(string)] = kv[i+1]
		}
	}
	return v
}
