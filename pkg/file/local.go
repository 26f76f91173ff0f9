package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrymomot/filesvc/pkg/token"
)

// BlobRoutePrefix is the path under which presigned local links are served.
const BlobRoutePrefix = "/v1/blobs/"

// LocalStorage implements Storage on the local filesystem. Objects live under
// baseDir/namespace and every path is confined to that root.
type LocalStorage struct {
	root      string // absolute baseDir/namespace
	namespace string
	publicURL string // externally reachable origin for presigned links
	secret    []byte
	now       func() time.Time
}

// LocalOption defines a function that configures LocalStorage.
type LocalOption func(*LocalStorage)

// WithLocalClock overrides the clock used for link expiry.
func WithLocalClock(now func() time.Time) LocalOption {
	return func(s *LocalStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLocalStorage creates a filesystem backend. The root directory is created
// lazily by EnsureNamespace. secret signs presigned links and must not be
// empty.
func NewLocalStorage(baseDir, namespace, publicURL string, secret []byte, opts ...LocalOption) (*LocalStorage, error) {
	if baseDir == "" || namespace == "" || len(secret) == 0 {
		return nil, ErrInvalidConfig
	}
	if strings.ContainsAny(namespace, `/\`) || namespace == "." || namespace == ".." {
		return nil, fmt.Errorf("%w: namespace %q", ErrInvalidConfig, namespace)
	}
	if _, err := url.Parse(publicURL); err != nil || publicURL == "" {
		return nil, fmt.Errorf("%w: public url %q", ErrInvalidConfig, publicURL)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}

	s := &LocalStorage{
		root:      filepath.Join(absBaseDir, namespace),
		namespace: namespace,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		secret:    secret,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *LocalStorage) Namespace() string { return s.namespace }

func (s *LocalStorage) Kind() string { return KindLocal }

// EnsureNamespace creates the root directory when missing.
func (s *LocalStorage) EnsureNamespace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ctxError(err, "ensure namespace")
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}
	return nil
}

// CheckNamespace stats the root directory.
func (s *LocalStorage) CheckNamespace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ctxError(err, "check namespace")
	}
	info, err := os.Stat(s.root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrBucketNotFound, s.namespace)
	case err != nil:
		return fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, s.namespace)
	}
	return nil
}

// Put writes r into a temp file next to the target, fsyncs it and renames it
// into place, so readers never observe a partial object. A negative size
// skips the length check.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Locator, error) {
	if err := CheckKey(key); err != nil {
		return Locator{}, err
	}
	absPath, err := s.resolvePath(key)
	if err != nil {
		return Locator{}, err
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := copyChunked(ctx, tmp, r, 0)
	if err != nil {
		return Locator{}, err
	}
	if size >= 0 && written != size {
		return Locator{}, fmt.Errorf("%w: wrote %d, declared %d", ErrSizeMismatch, written, size)
	}
	if err := tmp.Sync(); err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := tmp.Close(); err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := ctx.Err(); err != nil {
		return Locator{}, ctxError(err, "put object")
	}
	if err := os.Rename(tmpName, absPath); err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	committed = true

	return Locator{Namespace: s.namespace, Key: key}, nil
}

type linkClaims struct {
	Namespace string `json:"n"`
	Key       string `json:"k"`
	Filename  string `json:"f,omitempty"`
	Expires   int64  `json:"e"`
}

// PresignGet returns a link served by the blob endpoint. The token binds the
// namespace, key, disposition filename and expiry.
func (s *LocalStorage) PresignGet(ctx context.Context, key string, ttl time.Duration, filename string) (string, error) {
	if err := CheckKey(key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive", ErrFailedToPresign)
	}
	if err := ctx.Err(); err != nil {
		return "", ctxError(err, "presign")
	}

	tok, err := token.Sign(linkClaims{
		Namespace: s.namespace,
		Key:       key,
		Filename:  filename,
		Expires:   s.now().Add(ttl).Unix(),
	}, s.secret)
	if err != nil {
		return "", errors.Join(ErrFailedToPresign, err)
	}

	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	q := url.Values{"token": []string{tok}}
	return s.publicURL + BlobRoutePrefix + url.PathEscape(s.namespace) + "/" + strings.Join(segments, "/") + "?" + q.Encode(), nil
}

// Blob is an object opened through a presigned link.
type Blob struct {
	*os.File
	Key                string
	Size               int64
	ModTime            time.Time
	ContentDisposition string
}

// Open validates a presigned link token for namespace/key and opens the
// object. The caller closes the returned Blob.
func (s *LocalStorage) Open(ctx context.Context, namespace, key, tok string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, ctxError(err, "open object")
	}

	claims, err := token.Verify[linkClaims](tok, s.secret)
	if err != nil {
		return nil, errors.Join(ErrLinkInvalid, err)
	}
	if claims.Namespace != namespace || claims.Key != key || namespace != s.namespace {
		return nil, ErrLinkInvalid
	}
	if s.now().Unix() >= claims.Expires {
		return nil, ErrLinkExpired
	}

	if err := CheckKey(key); err != nil {
		return nil, err
	}
	absPath, err := s.resolvePath(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, key)
	}

	return &Blob{
		File:               f,
		Key:                key,
		Size:               info.Size(),
		ModTime:            info.ModTime(),
		ContentDisposition: contentDisposition(claims.Filename),
	}, nil
}

// resolvePath maps a key to an absolute path and rejects anything that would
// land outside the namespace root.
func (s *LocalStorage) resolvePath(key string) (string, error) {
	absPath := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(absPath, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}
	return absPath, nil
}
