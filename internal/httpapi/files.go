package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/filesvc/internal/auth"
	"github.com/dmitrymomot/filesvc/internal/filesvc"
	"github.com/dmitrymomot/filesvc/internal/metadata"
	"github.com/dmitrymomot/filesvc/internal/policy"
)

// FileSizeHeader optionally declares the size of the uploaded file.
const FileSizeHeader = "X-File-Size"

// maxFieldBytes bounds association form fields. Any id short enough to be
// stored fits.
const maxFieldBytes = 256

func caller(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// upload accepts multipart/form-data with a "file" part. Association fields
// are read from form fields sent before the file part, falling back to the
// query string.
func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	limit := h.files.MaxBytes() + multipartOverhead
	if r.ContentLength > limit {
		h.metrics.uploadDone(string(policy.CodeFileTooLarge), 0)
		writeViolation(w, &policy.Violation{
			Code:    policy.CodeFileTooLarge,
			Message: fmt.Sprintf("file exceeds the maximum allowed size of %d bytes", h.files.MaxBytes()),
			Context: map[string]any{"limit": h.files.MaxBytes(), "actual": r.ContentLength},
		})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mr, err := r.MultipartReader()
	if err != nil {
		h.metrics.uploadDone(CodeInvalidRequest, 0)
		writeProblem(w, http.StatusBadRequest, CodeInvalidRequest, "expected multipart/form-data body")
		return
	}

	q := r.URL.Query()
	fields := map[string]string{
		"channel_id": q.Get("channel_id"),
		"thread_id":  q.Get("thread_id"),
		"message_id": q.Get("message_id"),
	}

	part, err := nextFilePart(mr, fields)
	if err != nil {
		h.metrics.uploadDone(CodeInvalidRequest, 0)
		writeProblem(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	defer part.Close()

	declared := int64(-1)
	if v := r.Header.Get(FileSizeHeader); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			declared = n
		}
	}

	rec, err := h.files.Upload(r.Context(), filesvc.UploadRequest{
		OwnerID:      caller(r).UserID,
		Filename:     part.FileName(),
		MIMEType:     part.Header.Get("Content-Type"),
		DeclaredSize: declared,
		Association: policy.Association{
			ChannelID: strings.TrimSpace(fields["channel_id"]),
			ThreadID:  strings.TrimSpace(fields["thread_id"]),
			MessageID: strings.TrimSpace(fields["message_id"]),
		},
		Body: part,
	})
	if err != nil {
		h.metrics.uploadDone(outcome(err), 0)
		h.writeError(w, r, err)
		return
	}

	if rec.ReusedFrom != uuid.Nil {
		h.metrics.uploadDone("reused", rec.Size)
	} else {
		h.metrics.uploadDone("created", rec.Size)
	}
	w.Header().Set("Location", "/v1/files/"+rec.ID.String())
	writeJSON(w, http.StatusCreated, newFileResponse(rec, h.files.StorageKind()))
}

// nextFilePart walks the form until the "file" part, collecting known text
// fields on the way.
func nextFilePart(mr *multipart.Reader, fields map[string]string) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errors.New(`multipart field "file" is required`)
		}
		if err != nil {
			return nil, fmt.Errorf("malformed multipart body: %w", err)
		}

		name := part.FormName()
		if name == "file" {
			return part, nil
		}
		if _, known := fields[name]; known {
			v, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			if err != nil {
				_ = part.Close()
				return nil, fmt.Errorf("malformed multipart body: %w", err)
			}
			if len(v) > maxFieldBytes {
				_ = part.Close()
				return nil, fmt.Errorf("multipart field %q is longer than %d bytes", name, maxFieldBytes)
			}
			fields[name] = string(v)
		}
		_ = part.Close()
	}
}

func outcome(err error) string {
	e, ok := filesvc.AsError(err)
	switch {
	case !ok:
		return CodeInternal
	case e.Violation != nil:
		return string(e.Violation.Code)
	default:
		return string(e.Kind)
	}
}

func (h *handler) fileID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, CodeInvalidID, "file id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}
	rec, err := h.files.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFileResponse(rec, h.files.StorageKind()))
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := metadata.Filter{
		MessageID: strings.TrimSpace(q.Get("message_id")),
		ThreadID:  strings.TrimSpace(q.Get("thread_id")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, CodeInvalidRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	recs, err := h.files.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items := make([]fileResponse, 0, len(recs))
	for _, rec := range recs {
		items = append(items, newFileResponse(rec, h.files.StorageKind()))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}
	if err := h.files.Delete(r.Context(), id, caller(r)); err != nil {
		h.metrics.deleteDone(outcome(err))
		h.writeError(w, r, err)
		return
	}
	h.metrics.deleteDone("deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) presign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}
	dl, err := h.files.PresignDownload(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presignResponse{
		URL:       dl.URL,
		ExpiresIn: int64(dl.ExpiresIn.Seconds()),
		ExpiresAt: dl.ExpiresAt,
	})
}

type validateRequest struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MIMEType  string `json:"mime_type"`
	ChannelID string `json:"channel_id"`
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
}

func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, CodeInvalidRequest, "invalid JSON body")
		return
	}

	violations, err := h.files.Validate(r.Context(), filesvc.ValidateRequest{
		OwnerID:  caller(r).UserID,
		Filename: req.Filename,
		Size:     req.Size,
		MIMEType: req.MIMEType,
		Association: policy.Association{
			ChannelID: req.ChannelID,
			ThreadID:  req.ThreadID,
			MessageID: req.MessageID,
		},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := validateResponse{Valid: len(violations) == 0, Violations: make([]violationResponse, 0, len(violations))}
	for _, v := range violations {
		resp.Violations = append(resp.Violations, violationResponse{Code: string(v.Code), Message: v.Message, Details: v.Context})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request) {
	u, err := h.files.Usage(r.Context(), caller(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{
		UsedBytes:      u.UsedBytes,
		QuotaBytes:     u.QuotaBytes,
		AvailableBytes: u.AvailableBytes,
		MaxFileBytes:   u.MaxFileBytes,
	})
}
