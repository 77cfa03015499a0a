// Package postgres provides PostgreSQL implementation of the editors repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the editors.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// IsEditor reports whether the Telegram user is on the allow-list.
func (r *Repository) IsEditor(ctx context.Context, tgUserID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM editors WHERE tg_user_id = $1)`,
		tgUserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check editor: %w", err)
	}
	return exists, nil
}
