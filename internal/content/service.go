// Package content provides the program catalogue: public read access and
// editor-only management of programs, days and exercises.
package content

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/bissquit/fitgram/internal/pkg/metrics"
)

// Service implements content business logic.
type Service struct {
	repo Repository
}

// NewService creates a new content service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateProgramInput holds data for creating a program.
type CreateProgramInput struct {
	Slug        string
	Title       string
	Description string
	ImageURL    string
	DetailsMD   string
	IsPublished bool
}

// UpdateProgramInput holds a partial program update. Nil fields are left unchanged.
type UpdateProgramInput struct {
	Slug        *string
	Title       *string
	Description *string
	ImageURL    *string
	DetailsMD   *string
	IsPublished *bool
}

// AddDayInput holds data for adding a day. A nil DayIndex means "after the last day".
type AddDayInput struct {
	DayIndex    *int
	Title       string
	Description string
}

// AddExerciseInput holds data for adding an exercise. A nil OrderIndex means
// "after the last exercise of the day".
type AddExerciseInput struct {
	OrderIndex  *int
	Title       string
	VideoURL    string
	Description string
}

// UpdateExerciseInput holds a partial exercise update.
type UpdateExerciseInput struct {
	OrderIndex  *int
	Title       *string
	VideoURL    *string
	Description *string
}

// CreateProgram validates and stores a new program.
func (s *Service) CreateProgram(ctx context.Context, input CreateProgramInput) (*domain.Program, error) {
	program := &domain.Program{
		Slug:        strings.TrimSpace(input.Slug),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		DetailsMD:   input.DetailsMD,
		IsPublished: input.IsPublished,
	}

	if err := validateProgram(program); err != nil {
		return nil, err
	}

	err := s.repo.CreateProgram(ctx, program)
	recordMutation("program", "create", err)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("program created", "program_id", program.ID, "slug", program.Slug)
	return program, nil
}

// GetProgram returns a program regardless of its publish state.
func (s *Service) GetProgram(ctx context.Context, id string) (*domain.ProgramWithDays, error) {
	program, err := s.repo.GetProgramByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadProgram(ctx, *program, false)
}

// ListPrograms returns all programs, published or not, without nested content.
func (s *Service) ListPrograms(ctx context.Context) ([]domain.Program, error) {
	return s.repo.ListPrograms(ctx, ProgramFilter{})
}

// UpdateProgram applies the provided fields only.
func (s *Service) UpdateProgram(ctx context.Context, id string, input UpdateProgramInput) (*domain.Program, error) {
	program, err := s.repo.GetProgramByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Slug != nil {
		program.Slug = strings.TrimSpace(*input.Slug)
	}
	if input.Title != nil {
		program.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		program.Description = *input.Description
	}
	if input.ImageURL != nil {
		program.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.DetailsMD != nil {
		program.DetailsMD = *input.DetailsMD
	}
	if input.IsPublished != nil {
		program.IsPublished = *input.IsPublished
	}

	if err := validateProgram(program); err != nil {
		return nil, err
	}

	err = s.repo.UpdateProgram(ctx, program)
	recordMutation("program", "update", err)
	if err != nil {
		return nil, err
	}

	return program, nil
}

// DeleteProgram removes a program. Its days and exercises are removed by the
// store's cascading foreign keys.
func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	err := s.repo.DeleteProgram(ctx, id)
	recordMutation("program", "delete", err)
	if err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("program deleted", "program_id", id)
	return nil
}

// TogglePublished flips the publish flag atomically.
func (s *Service) TogglePublished(ctx context.Context, id string) (*domain.Program, error) {
	program, err := s.repo.TogglePublished(ctx, id)
	recordMutation("program", "toggle_published", err)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("program publish state changed",
		"program_id", id,
		"is_published", program.IsPublished,
	)
	return program, nil
}

// AddDay appends a day to a program.
func (s *Service) AddDay(ctx context.Context, programID string, input AddDayInput) (*domain.ProgramDay, error) {
	index, err := s.resolveIndex(input.DayIndex, func() (int, error) {
		return s.repo.MaxDayIndex(ctx, programID)
	})
	if err != nil {
		return nil, err
	}

	day := &domain.ProgramDay{
		ProgramID:   programID,
		DayIndex:    index,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
	}

	err = s.repo.CreateDay(ctx, day)
	recordMutation("day", "create", err)
	if err != nil {
		return nil, err
	}

	return day, nil
}

// GetDay returns a day with its exercises.
func (s *Service) GetDay(ctx context.Context, id string) (*domain.DayWithExercises, error) {
	day, err := s.repo.GetDay(ctx, id)
	if err != nil {
		return nil, err
	}

	exercises, err := s.repo.ListExercises(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}

	return &domain.DayWithExercises{ProgramDay: *day, Exercises: exercises}, nil
}

// AddExercise appends an exercise to a day.
func (s *Service) AddExercise(ctx context.Context, dayID string, input AddExerciseInput) (*domain.Exercise, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	index, err := s.resolveIndex(input.OrderIndex, func() (int, error) {
		return s.repo.MaxOrderIndex(ctx, dayID)
	})
	if err != nil {
		return nil, err
	}

	exercise := &domain.Exercise{
		ProgramDayID: dayID,
		OrderIndex:   index,
		Title:        title,
		VideoURL:     strings.TrimSpace(input.VideoURL),
		Description:  input.Description,
	}

	err = s.repo.CreateExercise(ctx, exercise)
	recordMutation("exercise", "create", err)
	if err != nil {
		return nil, err
	}

	return exercise, nil
}

// GetExercise returns a single exercise.
func (s *Service) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	return s.repo.GetExercise(ctx, id)
}

// UpdateExercise applies the provided fields only.
func (s *Service) UpdateExercise(ctx context.Context, id string, input UpdateExerciseInput) (*domain.Exercise, error) {
	exercise, err := s.repo.GetExercise(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.OrderIndex != nil {
		if !validIndex(*input.OrderIndex) {
			return nil, ErrInvalidIndex
		}
		exercise.OrderIndex = *input.OrderIndex
	}
	if input.Title != nil {
		exercise.Title = strings.TrimSpace(*input.Title)
		if exercise.Title == "" {
			return nil, ErrTitleRequired
		}
	}
	if input.VideoURL != nil {
		exercise.VideoURL = strings.TrimSpace(*input.VideoURL)
	}
	if input.Description != nil {
		exercise.Description = *input.Description
	}

	err = s.repo.UpdateExercise(ctx, exercise)
	recordMutation("exercise", "update", err)
	if err != nil {
		return nil, err
	}

	return exercise, nil
}

// DeleteExercise removes a single exercise.
func (s *Service) DeleteExercise(ctx context.Context, id string) error {
	err := s.repo.DeleteExercise(ctx, id)
	recordMutation("exercise", "delete", err)
	return err
}

// ListPublished returns every published program with days and exercises.
// A failure to load one program's days or one day's exercises degrades that
// entity to an empty list instead of failing the whole response.
func (s *Service) ListPublished(ctx context.Context) ([]domain.ProgramWithDays, error) {
	programs, err := s.repo.ListPrograms(ctx, ProgramFilter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}

	result := make([]domain.ProgramWithDays, 0, len(programs))
	for _, p := range programs {
		loaded, err := s.loadProgram(ctx, p, true)
		if err != nil {
			return nil, err
		}
		result = append(result, *loaded)
	}

	return result, nil
}

// GetPublishedBySlug returns a published program. Unpublished programs are
// reported as not found.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*domain.ProgramWithDays, error) {
	program, err := s.repo.GetProgramBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !program.IsPublished {
		return nil, ErrProgramNotFound
	}
	return s.loadProgram(ctx, *program, true)
}

// loadProgram attaches days and exercises. With degrade set, load failures
// are logged and replaced by empty lists.
func (s *Service) loadProgram(ctx context.Context, program domain.Program, degrade bool) (*domain.ProgramWithDays, error) {
	logger := ctxlog.FromContext(ctx)
	result := &domain.ProgramWithDays{Program: program, Days: []domain.DayWithExercises{}}

	days, err := s.repo.ListDays(ctx, program.ID)
	if err != nil {
		if !degrade {
			return nil, fmt.Errorf("list days: %w", err)
		}
		logger.Warn("failed to load program days, returning empty list",
			"program_id", program.ID,
			"error", err,
		)
		return result, nil
	}

	for _, day := range days {
		exercises, err := s.repo.ListExercises(ctx, day.ID)
		if err != nil {
			if !degrade {
				return nil, fmt.Errorf("list exercises: %w", err)
			}
			logger.Warn("failed to load day exercises, returning empty list",
				"program_id", program.ID,
				"day_id", day.ID,
				"error", err,
			)
			exercises = []domain.Exercise{}
		}
		result.Days = append(result.Days, domain.DayWithExercises{ProgramDay: day, Exercises: exercises})
	}

	return result, nil
}

// resolveIndex returns the explicit index when given, otherwise max+1.
func (s *Service) resolveIndex(explicit *int, maxIndex func() (int, error)) (int, error) {
	if explicit != nil {
		if !validIndex(*explicit) {
			return 0, ErrInvalidIndex
		}
		return *explicit, nil
	}

	current, err := maxIndex()
	if err != nil {
		return 0, err
	}
	if current >= MaxIndex {
		return 0, ErrInvalidIndex
	}
	return current + 1, nil
}

// MaxIndex is the largest day or order index the store can hold.
const MaxIndex = math.MaxInt32

func validIndex(i int) bool {
	return i > 0 && i <= MaxIndex
}

func validateProgram(p *domain.Program) error {
	if p.Title == "" {
		return ErrTitleRequired
	}
	if !domain.IsValidSlug(p.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

func recordMutation(entity, operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.ContentMutations.WithLabelValues(entity, operation, result).Inc()
}
