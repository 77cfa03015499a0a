package editors

import "errors"

// Service errors.
var (
	ErrInvalidToken    = errors.New("invalid session token")
	ErrInvalidPin      = errors.New("invalid pin")
	ErrDevPinDisabled  = errors.New("dev pin is disabled")
	ErrUnknownCredKind = errors.New("unknown credential kind")
)
