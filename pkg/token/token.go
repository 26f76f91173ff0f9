package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Sign serializes payload to JSON and returns "payload.signature", both parts
// base64url encoded. The signature is HMAC-SHA256 over the JSON bytes.
func Sign[T any](payload T, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Join(ErrEncode, err)
	}

	return base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(mac(data, secret)), nil
}

// Verify checks the signature of a token produced by Sign and decodes its
// payload. Expiry and other claims are the caller's business.
func Verify[T any](token string, secret []byte) (T, error) {
	var payload T
	if len(secret) == 0 {
		return payload, ErrEmptySecret
	}

	encData, encSig, ok := strings.Cut(token, ".")
	if !ok || encData == "" || encSig == "" {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(encData)
	if err != nil {
		return payload, ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return payload, ErrInvalidToken
	}

	if subtle.ConstantTimeCompare(sig, mac(data, secret)) != 1 {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}
	return payload, nil
}

func mac(data, secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return h.Sum(nil)
}
