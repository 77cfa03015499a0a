// Command migrate applies or rolls back the database schema.
//
//	migrate [-path migrations] [up|down|version]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bissquit/fitgram/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	path := flag.String("path", "migrations", "migrations directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	if err := run(*path, flag.Arg(0)); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(path, cmd string) error {
	dbURL := os.Getenv(config.EnvPrefix + "DATABASE__URL")
	if dbURL == "" {
		return fmt.Errorf("%sDATABASE__URL is required", config.EnvPrefix)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve migrations path: %w", err)
	}

	m, err := migrate.New("file://"+abs, dbURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch cmd {
	case "", "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("read version: %w", err)
		}
		slog.Info("schema version", "version", v, "dirty", dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", cmd, err)
	}
	slog.Info("migration finished", "command", cmd)
	return nil
}
