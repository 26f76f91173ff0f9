package file

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Locator identifies stored bytes: the namespace (bucket or local root) plus
// the object key inside it.
type Locator struct {
	Namespace string
	Key       string
}

// Storage is the object storage port. Implementations are safe for
// concurrent use.
type Storage interface {
	// Put writes the object atomically: either all size bytes are visible at
	// key or nothing is. Keys are expected to be fresh; overwriting is not
	// supported.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Locator, error)
	// PresignGet returns a credential-free URL that reads key until ttl
	// elapses. A non-empty filename is sent back as an attachment disposition.
	PresignGet(ctx context.Context, key string, ttl time.Duration, filename string) (string, error)
	// EnsureNamespace creates the bucket or root directory when missing.
	// Safe to call repeatedly.
	EnsureNamespace(ctx context.Context) error
	// CheckNamespace reports whether the bucket or root directory is
	// reachable without creating anything. Used by readiness probes.
	CheckNamespace(ctx context.Context) error
	// Namespace reports the namespace objects are written to.
	Namespace() string
	// Kind reports the backend name, "local" or "s3".
	Kind() string
}

// URI renders the locator as scheme://namespace/key.
func (l Locator) URI(kind string) string {
	scheme := "file"
	if kind == KindS3 {
		scheme = "s3"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, l.Namespace, l.Key)
}

// CheckKey rejects keys that are empty, absolute or that escape the namespace.
func CheckKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." || seg == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// contentDisposition builds an attachment header value that survives
// non-ASCII filenames.
func contentDisposition(filename string) string {
	if filename == "" {
		return ""
	}
	ascii := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, pathEscape(filename))
}

func pathEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || strings.IndexByte("-._~", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}
