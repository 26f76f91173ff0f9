package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the acting user under the key "user_id".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

// FileID records the file record identifier under the key "file_id".
func FileID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("file_id", id)
}

func ObjectKey(key string) slog.Attr {
	return slog.String("object_key", key)
}

func Hash(sum string) slog.Attr {
	return slog.String("hash_sha256", sum)
}

func Size(n int64) slog.Attr {
	return slog.Int64("size", n)
}

// Reason records a policy reason code under the key "reason".
func Reason(code string) slog.Attr {
	return slog.String("reason", code)
}

// EventType records the event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
