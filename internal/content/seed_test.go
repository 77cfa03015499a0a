package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
programs:
  - title: "Full Body Beginner"
    description: "Three weeks"
    is_published: true
    days:
      - title: "Day one"
        exercises:
          - title: "Squat"
            video_url: "https://example.com/squat.mp4"
          - title: "Push-up"
      - title: "Day two"
        day_index: 5
        exercises:
          - title: "Plank"
            order_index: 3
  - slug: "mobility"
    title: "Mobility"
`

func writeSeedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "programs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	sf, err := LoadSeedFile(writeSeedFile(t))
	require.NoError(t, err)

	require.Len(t, sf.Programs, 2)
	first := sf.Programs[0]
	assert.Equal(t, "Full Body Beginner", first.Title)
	assert.Empty(t, first.Slug)
	assert.True(t, first.IsPublished)
	require.Len(t, first.Days, 2)
	assert.Nil(t, first.Days[0].DayIndex)
	require.NotNil(t, first.Days[1].DayIndex)
	assert.Equal(t, 5, *first.Days[1].DayIndex)
	assert.Equal(t, "https://example.com/squat.mp4", first.Days[0].Exercises[0].VideoURL)
	assert.Equal(t, "mobility", sf.Programs[1].Slug)
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	sf, err := LoadSeedFile(writeSeedFile(t))
	require.NoError(t, err)

	result, err := svc.Seed(ctx, sf.Programs)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 2, Days: 2, Exercises: 3}, result)

	program, err := svc.GetPublishedBySlug(ctx, "full-body-beginner")
	require.NoError(t, err)
	require.Len(t, program.Days, 2)
	assert.Equal(t, 1, program.Days[0].DayIndex)
	assert.Equal(t, 5, program.Days[1].DayIndex)
	assert.Equal(t, []int{1, 2}, []int{
		program.Days[0].Exercises[0].OrderIndex,
		program.Days[0].Exercises[1].OrderIndex,
	})
	assert.Equal(t, 3, program.Days[1].Exercises[0].OrderIndex)

	again, err := svc.Seed(ctx, sf.Programs)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Skipped: 2}, again)
}

func TestSeed_StopsOnInvalidProgram(t *testing.T) {
	svc := NewService(newMockRepository())

	result, err := svc.Seed(context.Background(), []SeedProgram{
		{Title: "Good One"},
		{Title: "!!!"},
		{Title: "Never Reached"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSlug)
	assert.Equal(t, 1, result.Created)
}
