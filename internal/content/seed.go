package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SeedFile is the document layout read by LoadSeedFile.
type SeedFile struct {
	Programs []SeedProgram `koanf:"programs"`
}

// SeedProgram describes one program with nested days.
type SeedProgram struct {
	Slug        string    `koanf:"slug"`
	Title       string    `koanf:"title"`
	Description string    `koanf:"description"`
	ImageURL    string    `koanf:"image_url"`
	DetailsMD   string    `koanf:"details_md"`
	IsPublished bool      `koanf:"is_published"`
	Days        []SeedDay `koanf:"days"`
}

// SeedDay describes one day with nested exercises.
type SeedDay struct {
	DayIndex    *int           `koanf:"day_index"`
	Title       string         `koanf:"title"`
	Description string         `koanf:"description"`
	Exercises   []SeedExercise `koanf:"exercises"`
}

// SeedExercise describes one exercise.
type SeedExercise struct {
	OrderIndex  *int   `koanf:"order_index"`
	Title       string `koanf:"title"`
	VideoURL    string `koanf:"video_url"`
	Description string `koanf:"description"`
}

// SeedResult summarises a seeding run.
type SeedResult struct {
	Created   int
	Skipped   int
	Days      int
	Exercises int
}

// LoadSeedFile reads programs from a YAML file.
func LoadSeedFile(path string) (*SeedFile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load seed file: %w", err)
	}

	var sf SeedFile
	if err := k.Unmarshal("", &sf); err != nil {
		return nil, fmt.Errorf("unmarshal seed file: %w", err)
	}
	return &sf, nil
}

// Seed creates every program in order, then its days, then their exercises.
// Inserts are independent: a failure stops the run and leaves already
// created rows in place. Programs whose slug already exists are skipped,
// so a rerun picks up where the previous one stopped at program granularity.
func (s *Service) Seed(ctx context.Context, programs []SeedProgram) (SeedResult, error) {
	logger := ctxlog.FromContext(ctx)
	var result SeedResult

	for _, sp := range programs {
		slug := sp.Slug
		if slug == "" {
			slug = Slugify(sp.Title)
		}

		program, err := s.CreateProgram(ctx, CreateProgramInput{
			Slug:        slug,
			Title:       sp.Title,
			Description: sp.Description,
			ImageURL:    sp.ImageURL,
			DetailsMD:   sp.DetailsMD,
			IsPublished: sp.IsPublished,
		})
		if errors.Is(err, ErrSlugExists) {
			logger.Info("program already exists, skipping", "slug", slug)
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("seed program %q: %w", slug, err)
		}
		result.Created++

		for _, sd := range sp.Days {
			day, err := s.AddDay(ctx, program.ID, AddDayInput{
				DayIndex:    sd.DayIndex,
				Title:       sd.Title,
				Description: sd.Description,
			})
			if err != nil {
				return result, fmt.Errorf("seed day %q of %q: %w", sd.Title, slug, err)
			}
			result.Days++

			for _, se := range sd.Exercises {
				_, err := s.AddExercise(ctx, day.ID, AddExerciseInput{
					OrderIndex:  se.OrderIndex,
					Title:       se.Title,
					VideoURL:    se.VideoURL,
					Description: se.Description,
				})
				if err != nil {
					return result, fmt.Errorf("seed exercise %q of %q: %w", se.Title, slug, err)
				}
				result.Exercises++
			}
		}
	}

	return result, nil
}
