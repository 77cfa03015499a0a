package content

import (
	"context"

	"github.com/bissquit/fitgram/internal/domain"
)

// Repository defines the interface for program content storage.
type Repository interface {
	CreateProgram(ctx context.Context, program *domain.Program) error
	GetProgramByID(ctx context.Context, id string) (*domain.Program, error)
	GetProgramBySlug(ctx context.Context, slug string) (*domain.Program, error)
	ListPrograms(ctx context.Context, filter ProgramFilter) ([]domain.Program, error)
	UpdateProgram(ctx context.Context, program *domain.Program) error
	DeleteProgram(ctx context.Context, id string) error
	// TogglePublished flips is_published in a single statement and returns
	// the updated program.
	TogglePublished(ctx context.Context, id string) (*domain.Program, error)

	CreateDay(ctx context.Context, day *domain.ProgramDay) error
	GetDay(ctx context.Context, id string) (*domain.ProgramDay, error)
	ListDays(ctx context.Context, programID string) ([]domain.ProgramDay, error)
	MaxDayIndex(ctx context.Context, programID string) (int, error)

	CreateExercise(ctx context.Context, exercise *domain.Exercise) error
	GetExercise(ctx context.Context, id string) (*domain.Exercise, error)
	ListExercises(ctx context.Context, dayID string) ([]domain.Exercise, error)
	MaxOrderIndex(ctx context.Context, dayID string) (int, error)
	UpdateExercise(ctx context.Context, exercise *domain.Exercise) error
	DeleteExercise(ctx context.Context, id string) error
}

// ProgramFilter represents filter criteria for listing programs.
type ProgramFilter struct {
	PublishedOnly bool
}
