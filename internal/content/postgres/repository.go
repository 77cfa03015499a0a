// Package postgres provides PostgreSQL implementation of the content repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/fitgram/internal/content"
	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const programColumns = `id, slug, title, description, image_url, details_md, is_published, created_at, updated_at`

const dayColumns = `id, program_id, day_index, title, description, created_at`

const exerciseColumns = `id, program_day_id, order_index, title, video_url, description, created_at, updated_at`

// Repository implements the content.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateProgram inserts a new program.
func (r *Repository) CreateProgram(ctx context.Context, program *domain.Program) error {
	query := `
		INSERT INTO programs (slug, title, description, image_url, details_md, is_published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		program.Slug,
		program.Title,
		program.Description,
		program.ImageURL,
		program.DetailsMD,
		program.IsPublished,
	).Scan(&program.ID, &program.CreatedAt, &program.UpdatedAt)

	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return content.ErrSlugExists
		}
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// GetProgramByID retrieves a program by its ID.
func (r *Repository) GetProgramByID(ctx context.Context, id string) (*domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`

	program, err := scanProgram(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrProgramNotFound
		}
		return nil, fmt.Errorf("get program by id: %w", err)
	}
	return program, nil
}

// GetProgramBySlug retrieves a program by its slug.
func (r *Repository) GetProgramBySlug(ctx context.Context, slug string) (*domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE slug = $1`

	program, err := scanProgram(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrProgramNotFound
		}
		return nil, fmt.Errorf("get program by slug: %w", err)
	}
	return program, nil
}

// ListPrograms retrieves programs ordered by creation time.
func (r *Repository) ListPrograms(ctx context.Context, filter content.ProgramFilter) ([]domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs`
	if filter.PublishedOnly {
		query += ` WHERE is_published = true`
	}
	query += ` ORDER BY created_at, slug`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	programs := make([]domain.Program, 0)
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, *program)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

// UpdateProgram updates all mutable program fields.
func (r *Repository) UpdateProgram(ctx context.Context, program *domain.Program) error {
	query := `
		UPDATE programs
		SET slug = $2, title = $3, description = $4, image_url = $5,
		    details_md = $6, is_published = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		program.ID,
		program.Slug,
		program.Title,
		program.Description,
		program.ImageURL,
		program.DetailsMD,
		program.IsPublished,
	).Scan(&program.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.ErrProgramNotFound
		}
		if postgres.IsUniqueViolation(err) {
			return content.ErrSlugExists
		}
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// DeleteProgram deletes a program. Days and exercises go with it through
// ON DELETE CASCADE.
func (r *Repository) DeleteProgram(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}

	if result.RowsAffected() == 0 {
		return content.ErrProgramNotFound
	}
	return nil
}

// TogglePublished flips is_published in one statement.
func (r *Repository) TogglePublished(ctx context.Context, id string) (*domain.Program, error) {
	query := `
		UPDATE programs
		SET is_published = NOT is_published, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + programColumns

	program, err := scanProgram(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrProgramNotFound
		}
		return nil, fmt.Errorf("toggle program published: %w", err)
	}
	return program, nil
}

// CreateDay inserts a new program day.
func (r *Repository) CreateDay(ctx context.Context, day *domain.ProgramDay) error {
	query := `
		INSERT INTO program_days (program_id, day_index, title, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		day.ProgramID,
		day.DayIndex,
		day.Title,
		day.Description,
	).Scan(&day.ID, &day.CreatedAt)

	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err):
			return content.ErrIndexTaken
		case postgres.IsForeignKeyViolation(err):
			return content.ErrProgramNotFound
		}
		return fmt.Errorf("create program day: %w", err)
	}
	return nil
}

// GetDay retrieves a program day by its ID.
func (r *Repository) GetDay(ctx context.Context, id string) (*domain.ProgramDay, error) {
	query := `SELECT ` + dayColumns + ` FROM program_days WHERE id = $1`

	var day domain.ProgramDay
	err := r.db.QueryRow(ctx, query, id).Scan(
		&day.ID,
		&day.ProgramID,
		&day.DayIndex,
		&day.Title,
		&day.Description,
		&day.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrDayNotFound
		}
		return nil, fmt.Errorf("get program day: %w", err)
	}
	return &day, nil
}

// ListDays retrieves the days of a program ordered by day_index.
func (r *Repository) ListDays(ctx context.Context, programID string) ([]domain.ProgramDay, error) {
	query := `SELECT ` + dayColumns + ` FROM program_days WHERE program_id = $1 ORDER BY day_index`

	rows, err := r.db.Query(ctx, query, programID)
	if err != nil {
		return nil, fmt.Errorf("list program days: %w", err)
	}
	defer rows.Close()

	days := make([]domain.ProgramDay, 0)
	for rows.Next() {
		var day domain.ProgramDay
		if err := rows.Scan(
			&day.ID,
			&day.ProgramID,
			&day.DayIndex,
			&day.Title,
			&day.Description,
			&day.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan program day: %w", err)
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate program days: %w", err)
	}
	return days, nil
}

// MaxDayIndex returns the highest day_index of a program, or 0 without days.
func (r *Repository) MaxDayIndex(ctx context.Context, programID string) (int, error) {
	var maxIndex int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(day_index), 0) FROM program_days WHERE program_id = $1`,
		programID,
	).Scan(&maxIndex)
	if err != nil {
		return 0, fmt.Errorf("max day index: %w", err)
	}
	return maxIndex, nil
}

// CreateExercise inserts a new exercise.
func (r *Repository) CreateExercise(ctx context.Context, exercise *domain.Exercise) error {
	query := `
		INSERT INTO exercises (program_day_id, order_index, title, video_url, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		exercise.ProgramDayID,
		exercise.OrderIndex,
		exercise.Title,
		exercise.VideoURL,
		exercise.Description,
	).Scan(&exercise.ID, &exercise.CreatedAt, &exercise.UpdatedAt)

	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err):
			return content.ErrIndexTaken
		case postgres.IsForeignKeyViolation(err):
			return content.ErrDayNotFound
		}
		return fmt.Errorf("create exercise: %w", err)
	}
	return nil
}

// GetExercise retrieves an exercise by its ID.
func (r *Repository) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1`

	exercise, err := scanExercise(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrExerciseNotFound
		}
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return exercise, nil
}

// ListExercises retrieves the exercises of a day ordered by order_index.
func (r *Repository) ListExercises(ctx context.Context, dayID string) ([]domain.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE program_day_id = $1 ORDER BY order_index`

	rows, err := r.db.Query(ctx, query, dayID)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]domain.Exercise, 0)
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, *exercise)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercises: %w", err)
	}
	return exercises, nil
}

// MaxOrderIndex returns the highest order_index within a day, or 0.
func (r *Repository) MaxOrderIndex(ctx context.Context, dayID string) (int, error) {
	var maxIndex int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index), 0) FROM exercises WHERE program_day_id = $1`,
		dayID,
	).Scan(&maxIndex)
	if err != nil {
		return 0, fmt.Errorf("max order index: %w", err)
	}
	return maxIndex, nil
}

// UpdateExercise updates all mutable exercise fields.
func (r *Repository) UpdateExercise(ctx context.Context, exercise *domain.Exercise) error {
	query := `
		UPDATE exercises
		SET order_index = $2, title = $3, video_url = $4, description = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		exercise.ID,
		exercise.OrderIndex,
		exercise.Title,
		exercise.VideoURL,
		exercise.Description,
	).Scan(&exercise.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.ErrExerciseNotFound
		}
		if postgres.IsUniqueViolation(err) {
			return content.ErrIndexTaken
		}
		return fmt.Errorf("update exercise: %w", err)
	}
	return nil
}

// DeleteExercise deletes an exercise.
func (r *Repository) DeleteExercise(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}

	if result.RowsAffected() == 0 {
		return content.ErrExerciseNotFound
	}
	return nil
}

func scanProgram(row pgx.Row) (*domain.Program, error) {
	var p domain.Program
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.ImageURL,
		&p.DetailsMD,
		&p.IsPublished,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanExercise(row pgx.Row) (*domain.Exercise, error) {
	var e domain.Exercise
	err := row.Scan(
		&e.ID,
		&e.ProgramDayID,
		&e.OrderIndex,
		&e.Title,
		&e.VideoURL,
		&e.Description,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
