package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrymomot/filesvc/internal/metadata"
	"github.com/dmitrymomot/filesvc/pkg/file"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type fileResponse struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	ChannelID  string    `json:"channel_id"`
	ThreadID   *string   `json:"thread_id"`
	MessageID  *string   `json:"message_id"`
	Filename   string    `json:"filename"`
	MIMEType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	SHA256     string    `json:"hash_sha256"`
	Bucket     string    `json:"bucket"`
	ObjectKey  string    `json:"object_key"`
	StorageURI string    `json:"storage_uri"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newFileResponse(rec *metadata.Record, storageKind string) fileResponse {
	return fileResponse{
		ID:         rec.ID.String(),
		OwnerID:    rec.OwnerID,
		ChannelID:  rec.ChannelID,
		ThreadID:   optional(rec.ThreadID),
		MessageID:  optional(rec.MessageID),
		Filename:   rec.Filename,
		MIMEType:   rec.MIMEType,
		Size:       rec.Size,
		SHA256:     rec.SHA256,
		Bucket:     rec.Bucket,
		ObjectKey:  rec.ObjectKey,
		StorageURI: file.Locator{Namespace: rec.Bucket, Key: rec.ObjectKey}.URI(storageKind),
		Version:    rec.Version,
		CreatedAt:  rec.CreatedAt.UTC(),
	}
}

type listResponse struct {
	Items []fileResponse `json:"items"`
	Count int            `json:"count"`
}

type presignResponse struct {
	URL       string    `json:"url"`
	ExpiresIn int64     `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

type violationResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type validateResponse struct {
	Valid      bool                `json:"valid"`
	Violations []violationResponse `json:"violations"`
}

type usageResponse struct {
	UsedBytes      int64 `json:"used_bytes"`
	QuotaBytes     int64 `json:"quota_bytes"`
	AvailableBytes int64 `json:"available_bytes"`
	MaxFileBytes   int64 `json:"max_file_bytes"`
}
