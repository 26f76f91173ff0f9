package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/filesvc/internal/filesvc"
	"github.com/dmitrymomot/filesvc/internal/policy"
	"github.com/dmitrymomot/filesvc/pkg/logger"
)

// Error codes produced by this layer. Validation failures use the policy
// reason codes.
const (
	CodeFileNotFound        = "FILE_NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	CodeMetadataUnavailable = "METADATA_UNAVAILABLE"
	CodeReadFailed          = "UPLOAD_READ_FAILED"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidID           = "INVALID_FILE_ID"
	CodeLinkInvalid         = "LINK_INVALID"
	CodeInternal            = "INTERNAL_ERROR"
)

var violationStatus = map[policy.Code]int{
	policy.CodeFileTooLarge:   http.StatusRequestEntityTooLarge,
	policy.CodeQuotaExceeded:  http.StatusRequestEntityTooLarge,
	policy.CodeMIMENotAllowed: http.StatusUnsupportedMediaType,
}

type kindMapping struct {
	status  int
	code    string
	message string
}

var kindStatus = map[filesvc.Kind]kindMapping{
	filesvc.KindValidation: {http.StatusBadRequest, CodeInvalidRequest, "invalid request"},
	filesvc.KindNotFound:   {http.StatusNotFound, CodeFileNotFound, "file not found"},
	filesvc.KindForbidden:  {http.StatusForbidden, CodeForbidden, "not allowed to delete this file"},
	filesvc.KindStorage:    {http.StatusServiceUnavailable, CodeStorageUnavailable, "file storage is temporarily unavailable"},
	filesvc.KindMetadata:   {http.StatusServiceUnavailable, CodeMetadataUnavailable, "metadata store is temporarily unavailable"},
	filesvc.KindRead:       {http.StatusBadRequest, CodeReadFailed, "failed to read the uploaded file"},
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// violationStatusCode maps a reason code to its HTTP status.
func violationStatusCode(code policy.Code) int {
	if s, ok := violationStatus[code]; ok {
		return s
	}
	return http.StatusBadRequest
}

func writeViolation(w http.ResponseWriter, v *policy.Violation) {
	writeJSON(w, violationStatusCode(v.Code), errorBody{Error: errorDetail{
		Code:    string(v.Code),
		Message: v.Message,
		Details: v.Context,
	}})
}

func writeProblem(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError renders a service error. Anything that is not a *filesvc.Error
// is logged and reported as 500.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := filesvc.AsError(err)
	if !ok {
		h.log.ErrorContext(r.Context(), "unexpected error", logger.Error(err))
		writeProblem(w, http.StatusInternalServerError, CodeInternal, "internal error")
		return
	}

	if e.Violation != nil {
		writeViolation(w, e.Violation)
		return
	}

	var tooLarge *http.MaxBytesError
	if e.Kind == filesvc.KindRead && errors.As(e.Cause(), &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{
			Code:    string(policy.CodeFileTooLarge),
			Message: "request body is too large",
			Details: map[string]any{"limit": tooLarge.Limit},
		}})
		return
	}

	m, ok := kindStatus[e.Kind]
	if !ok {
		m = kindMapping{http.StatusInternalServerError, CodeInternal, "internal error"}
	}
	if m.status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", slog.String("kind", string(e.Kind)), logger.Error(e.Cause()))
	}
	message := m.message
	if e.Kind == filesvc.KindValidation && e.Cause() != nil {
		message = e.Cause().Error()
	}
	writeJSON(w, m.status, errorBody{Error: errorDetail{
		Code:      m.code,
		Message:   message,
		Retryable: e.Retryable(),
	}})
}
