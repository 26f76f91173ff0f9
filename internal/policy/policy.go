package policy

import (
	"fmt"
	"mime"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxFilenameLength is measured in characters, not bytes.
const MaxFilenameLength = 255

const forbiddenFilenameChars = "/\\:*?\"<>|\x00"

// Config holds the upload limits, read from FILES_* environment variables.
type Config struct {
	MaxBytes    int64    `env:"FILES_MAX_BYTES" envDefault:"10485760"`
	QuotaBytes  int64    `env:"FILES_USER_QUOTA_BYTES" envDefault:"104857600"`
	AllowedMIME []string `env:"FILES_ALLOWED_MIME" envSeparator:"," envDefault:"image/png,image/jpeg,image/gif,image/webp,application/pdf,text/plain,text/markdown,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document"`
}

// Association links a file to its conversational context. Empty strings mean
// "not given".
type Association struct {
	ChannelID string
	ThreadID  string
	MessageID string
}

// Input is everything the validators look at for one upload.
type Input struct {
	Filename     string
	Size         int64
	MIMEType     string
	CurrentUsage int64
	Association  Association
}

// Engine evaluates the upload policy. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	maxBytes   int64
	quotaBytes int64
	allowed    map[string]struct{}
	allowedStr string
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("%w: max bytes must be positive", ErrInvalidConfig)
	}
	if cfg.QuotaBytes <= 0 {
		return nil, fmt.Errorf("%w: quota must be positive", ErrInvalidConfig)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedMIME))
	for _, m := range cfg.AllowedMIME {
		if m = NormalizeMIME(m); m != "" {
			allowed[m] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: MIME allow-list is empty", ErrInvalidConfig)
	}

	list := make([]string, 0, len(allowed))
	for m := range allowed {
		list = append(list, m)
	}
	slices.Sort(list)

	return &Engine{
		maxBytes:   cfg.MaxBytes,
		quotaBytes: cfg.QuotaBytes,
		allowed:    allowed,
		allowedStr: strings.Join(list, ", "),
	}, nil
}

func (e *Engine) MaxBytes() int64   { return e.maxBytes }
func (e *Engine) QuotaBytes() int64 { return e.quotaBytes }

// CleanFilename trims surrounding whitespace; validators and storage both use
// the cleaned name.
func CleanFilename(name string) string {
	return strings.TrimSpace(name)
}

// NormalizeMIME lowercases a content type and drops parameters such as
// charset. Unparseable values are only trimmed and lowercased.
func NormalizeMIME(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return mt
	}
	return v
}

// Filename rejects empty, overlong, path-like and extension-only names.
func (e *Engine) Filename(name string) *Violation {
	name = CleanFilename(name)
	if name == "" {
		return violation(CodeFilenameEmpty, "filename is empty")
	}
	if n := utf8.RuneCountInString(name); n > MaxFilenameLength {
		return violation(CodeFilenameTooLong,
			fmt.Sprintf("filename is too long (max %d characters)", MaxFilenameLength),
			"limit", MaxFilenameLength, "actual", n)
	}
	if strings.ContainsAny(name, forbiddenFilenameChars) {
		return violation(CodeFilenameInvalidChars,
			`filename contains forbidden characters: / \ : * ? " < > | NUL`,
			"filename", name)
	}
	if strings.HasPrefix(name, ".") && !strings.Contains(name[1:], ".") {
		return violation(CodeFilenameOnlyExtension, "filename cannot be only an extension", "filename", name)
	}
	return nil
}

// Size rejects non-positive sizes and sizes above the configured maximum.
func (e *Engine) Size(size int64) *Violation {
	if size > e.maxBytes {
		return violation(CodeFileTooLarge,
			fmt.Sprintf("file exceeds the maximum allowed size of %d bytes", e.maxBytes),
			"limit", e.maxBytes, "actual", size)
	}
	if size <= 0 {
		return violation(CodeFileEmpty, "file is empty", "actual", size)
	}
	return nil
}

// MIME rejects a missing type or one outside the allow-list.
func (e *Engine) MIME(mimeType string) *Violation {
	normalized := NormalizeMIME(mimeType)
	if normalized == "" {
		return violation(CodeMIMEMissing, "MIME type not specified")
	}
	if _, ok := e.allowed[normalized]; !ok {
		return violation(CodeMIMENotAllowed,
			fmt.Sprintf("MIME type %q is not allowed; allowed types: %s", mimeType, e.allowedStr),
			"mime_type", mimeType, "allowed", e.allowedStr)
	}
	return nil
}

// Quota rejects an upload that would push usage past the per-user quota.
// usage+size == quota is allowed.
func (e *Engine) Quota(usage, size int64) *Violation {
	if usage+size > e.quotaBytes {
		available := max(0, e.quotaBytes-usage)
		return violation(CodeQuotaExceeded,
			fmt.Sprintf("quota exceeded: %d bytes available, file is %d bytes", available, size),
			"quota", e.quotaBytes, "usage", usage, "available", available, "actual", size)
	}
	return nil
}

// Association requires a channel, and a thread whenever a message is given.
func (e *Engine) Association(a Association) *Violation {
	if strings.TrimSpace(a.ChannelID) == "" {
		return violation(CodeChannelRequired, "channel_id is required")
	}
	if strings.TrimSpace(a.MessageID) != "" && strings.TrimSpace(a.ThreadID) == "" {
		return violation(CodeThreadRequiredWithMessage, "message_id requires thread_id")
	}
	return nil
}

// Check runs every validator in order (filename, size, MIME, quota,
// association) and returns all violations. Used for pre-flight checks.
func (e *Engine) Check(in Input) []*Violation {
	var out []*Violation
	for _, v := range e.run(in) {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// First returns the first violation in evaluation order, or nil.
func (e *Engine) First(in Input) *Violation {
	for _, v := range e.run(in) {
		if v != nil {
			return v
		}
	}
	return nil
}

// Declared runs the checks that only need declared metadata: filename, size
// and MIME, in that order. Size is skipped when unknown (negative).
func (e *Engine) Declared(filename string, size int64, mimeType string) *Violation {
	if v := e.Filename(filename); v != nil {
		return v
	}
	if size >= 0 {
		if v := e.Size(size); v != nil {
			return v
		}
	}
	return e.MIME(mimeType)
}

func (e *Engine) run(in Input) []*Violation {
	return []*Violation{
		e.Filename(in.Filename),
		e.Size(in.Size),
		e.MIME(in.MIMEType),
		e.Quota(in.CurrentUsage, in.Size),
		e.Association(in.Association),
	}
}
