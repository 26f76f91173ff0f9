package token

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrSignatureInvalid = errors.New("signature mismatch")
	ErrEmptySecret      = errors.New("signing secret is empty")
	ErrEncode           = errors.New("failed to encode token payload")
)
