// Package token signs small JSON payloads with HMAC-SHA256 so they can travel
// in URLs. The local storage backend uses it for presigned download links.
package token
