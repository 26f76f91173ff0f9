package auth

import "errors"

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrMalformedToken = errors.New("authorization header must be 'Bearer <token>'")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingSubject = errors.New("token has no subject")
	ErrInvalidConfig  = errors.New("invalid auth configuration")
	ErrInvalidKey     = errors.New("invalid signing key")
)
