package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize bounds how much of a stream is held in memory at once while
// hashing or spooling.
const ChunkSize = 1 << 20

// Digest is the content identity of a byte stream.
type Digest struct {
	SHA256 string // lowercase hex
	Size   int64
}

// Sum streams r through SHA-256 in ChunkSize pieces and returns the hex digest
// and byte count. Read errors are wrapped with ErrFailedToReadFile.
func Sum(ctx context.Context, r io.Reader) (Digest, error) {
	h := sha256.New()
	n, err := copyChunked(ctx, h, r, 0)
	if err != nil {
		return Digest{Size: n}, err
	}
	return Digest{SHA256: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}

// Spooled is a stream that has been consumed once into a temporary file while
// being hashed. The bytes can then be replayed to storage without trusting the
// caller's declared size.
type Spooled struct {
	Digest
	f *os.File
}

// Spool copies r into a temp file under dir, hashing on the way. When limit
// is positive and r yields more than limit bytes the copy stops and
// ErrLimitExceeded is returned together with the partial Digest, so the
// caller can report the observed size.
func Spool(ctx context.Context, r io.Reader, dir string, limit int64) (*Spooled, error) {
	f, err := os.CreateTemp(dir, "filesvc-spool-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}

	h := sha256.New()
	n, err := copyChunked(ctx, io.MultiWriter(f, h), r, limit)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return &Spooled{Digest: Digest{Size: n}}, err
	}

	return &Spooled{
		Digest: Digest{SHA256: hex.EncodeToString(h.Sum(nil)), Size: n},
		f:      f,
	}, nil
}

// Reader rewinds the spool and returns it for reading. The returned file
// stays owned by the Spooled value.
func (s *Spooled) Reader() (*os.File, error) {
	if s == nil || s.f == nil {
		return nil, ErrFileNotFound
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}
	return s.f, nil
}

// Close releases and removes the temp file. Safe on nil and repeated calls.
func (s *Spooled) Close() error {
	if s == nil || s.f == nil {
		return nil
	}
	name := s.f.Name()
	err := s.f.Close()
	s.f = nil
	return errors.Join(err, os.Remove(name))
}

// copyChunked copies in ChunkSize reads, checking ctx between chunks. A
// positive limit makes it fail once more than limit bytes were seen.
func copyChunked(ctx context.Context, dst io.Writer, src io.Reader, limit int64) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctxError(ctx.Err(), "read stream")
		default:
		}

		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("%w: %v", ErrFailedToHashFile, err)
			}
			written += int64(n)
			if limit > 0 && written > limit {
				return written, fmt.Errorf("%w: read %d bytes, limit %d", ErrLimitExceeded, written, limit)
			}
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return written, nil
		default:
			return written, fmt.Errorf("%w: %w", ErrFailedToReadFile, readErr)
		}
	}
}

func ctxError(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrOperationTimeout, op)
	}
	return fmt.Errorf("%w: %s", ErrOperationCanceled, op)
}
