package policy

import "errors"

var ErrInvalidConfig = errors.New("invalid policy configuration")
