package content

import "errors"

// Repository errors.
var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrDayNotFound      = errors.New("program day not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrSlugExists       = errors.New("program with this slug already exists")
	ErrIndexTaken       = errors.New("index already taken")
)

// Validation errors.
var (
	ErrInvalidSlug   = errors.New("slug must contain only lowercase letters, digits and hyphens")
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidIndex  = errors.New("index must be a positive 32-bit integer")
)
