package access

import "errors"

// Repository errors.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Grant validation errors.
var (
	ErrMissingUserID   = errors.New("user id is missing")
	ErrInvalidUserID   = errors.New("user id must be an integer")
	ErrInvalidDuration = errors.New("duration_days must be a positive integer of at most 36500")
	ErrInvalidPlan     = errors.New("plan must be at most 64 characters")
	ErrInvalidPayload  = errors.New("invalid payload")
)
