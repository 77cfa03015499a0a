// Package postgres provides PostgreSQL implementation of the access repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/fitgram/internal/access"
	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the access.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UpsertUser inserts a user or refreshes profile fields of an existing one.
func (r *Repository) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (tg_user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tg_user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpsertSubscription creates or replaces the user's subscription.
func (r *Repository) UpsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, plan, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET plan = EXCLUDED.plan,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		sub.UserID,
		sub.Plan,
		sub.ExpiresAt,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return access.ErrUserNotFound
		}
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// GetSubscription retrieves the user's subscription.
func (r *Repository) GetSubscription(ctx context.Context, userID int64) (*domain.Subscription, error) {
	query := `
		SELECT user_id, plan, expires_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	var sub domain.Subscription
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.UserID,
		&sub.Plan,
		&sub.ExpiresAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, access.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}
