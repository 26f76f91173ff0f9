package httpapi

import (
	"errors"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/filesvc/pkg/file"
	"github.com/dmitrymomot/filesvc/pkg/logger"
)

// blob streams an object addressed by a locally presigned link.
func (h *handler) blob(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	key := chi.URLParam(r, "*")

	b, err := h.blobs.Open(r.Context(), namespace, key, r.URL.Query().Get("token"))
	switch {
	case errors.Is(err, file.ErrLinkExpired):
		writeProblem(w, http.StatusForbidden, CodeLinkInvalid, "download link expired")
		return
	case errors.Is(err, file.ErrLinkInvalid):
		writeProblem(w, http.StatusForbidden, CodeLinkInvalid, "download link invalid")
		return
	case errors.Is(err, file.ErrFileNotFound):
		writeProblem(w, http.StatusNotFound, CodeFileNotFound, "file not found")
		return
	case errors.Is(err, file.ErrInvalidKey), errors.Is(err, file.ErrInvalidPath):
		writeProblem(w, http.StatusBadRequest, CodeInvalidRequest, "invalid object key")
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "blob open failed", logger.ObjectKey(key), logger.Error(err))
		writeProblem(w, http.StatusServiceUnavailable, CodeStorageUnavailable, "file storage is temporarily unavailable")
		return
	}
	defer b.Close()

	if b.ContentDisposition != "" {
		w.Header().Set("Content-Disposition", b.ContentDisposition)
	}
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, path.Base(b.Key), b.ModTime, b.File)
}
