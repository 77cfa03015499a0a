package domain

import (
	"regexp"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// IsValidSlug reports whether s is a non-empty URL-safe slug made of
// lowercase letters, digits and hyphens.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Program is a named fitness curriculum composed of ordered days.
type Program struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	DetailsMD   string    `json:"details_md"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProgramDay is an ordered session within a program.
type ProgramDay struct {
	ID          string    `json:"id"`
	ProgramID   string    `json:"program_id"`
	DayIndex    int       `json:"day_index"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Exercise is a single prescribed movement within a day.
type Exercise struct {
	ID           string    `json:"id"`
	ProgramDayID string    `json:"program_day_id"`
	OrderIndex   int       `json:"order_index"`
	Title        string    `json:"title"`
	VideoURL     string    `json:"video_url"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DayWithExercises is a day together with its exercises ordered by order_index.
type DayWithExercises struct {
	ProgramDay
	Exercises []Exercise `json:"exercises"`
}

// ProgramWithDays is a program together with its days ordered by day_index.
type ProgramWithDays struct {
	Program
	Days []DayWithExercises `json:"days"`
}
