// Command seed loads programs with their days and exercises from a YAML
// file. Programs whose slug already exists are skipped, so the command can
// be re-run after a partial failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bissquit/fitgram/internal/config"
	"github.com/bissquit/fitgram/internal/content"
	contentpostgres "github.com/bissquit/fitgram/internal/content/postgres"
	"github.com/bissquit/fitgram/internal/pkg/postgres"
	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "programs.yaml", "YAML file with programs")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *file); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	dbURL := os.Getenv(config.EnvPrefix + "DATABASE__URL")
	if dbURL == "" {
		return fmt.Errorf("%sDATABASE__URL is required", config.EnvPrefix)
	}

	seed, err := content.LoadSeedFile(path)
	if err != nil {
		return err
	}

	db, err := postgres.Connect(ctx, postgres.Config{URL: dbURL, ConnectAttempts: 3})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	service := content.NewService(contentpostgres.NewRepository(db))

	result, err := service.Seed(ctx, seed.Programs)
	slog.Info("seed finished",
		"created", result.Created,
		"skipped", result.Skipped,
		"days", result.Days,
		"exercises", result.Exercises,
	)
	return err
}
