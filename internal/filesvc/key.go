package filesvc

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// maxKeyNameBytes keeps the last key segment under the 255-byte file name
	// limit of common filesystems and the whole key far below the S3 limit.
	maxKeyNameBytes = 200
	maxKeyExtBytes  = 32
	fallbackKeyName = "file"
)

// objectKey derives a fresh storage key for a record. The filename is only a
// readable suffix; the record keeps the name exactly as uploaded.
func objectKey(id uuid.UUID, filename string) string {
	return id.String() + "/" + keyName(filename)
}

// keyName turns any filename the policy accepts into one safe key segment:
// "." and ".." become a fixed name and long names are cut on a rune boundary
// with the extension kept.
func keyName(filename string) string {
	name := strings.TrimSpace(filename)
	if !utf8.ValidString(name) {
		name = strings.ToValidUTF8(name, "_")
	}
	if strings.Trim(name, ".") == "" {
		return fallbackKeyName
	}
	if len(name) <= maxKeyNameBytes {
		return name
	}

	ext := path.Ext(name)
	if len(ext) > maxKeyExtBytes || len(ext) == len(name) {
		ext = ""
	}
	stem := truncateUTF8(strings.TrimSuffix(name, ext), maxKeyNameBytes-len(ext))
	if strings.Trim(stem, ".") == "" {
		stem = fallbackKeyName
	}
	return stem + ext
}

// truncateUTF8 returns the longest prefix of s that fits in n bytes without
// splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
