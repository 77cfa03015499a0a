package access

import (
	"context"

	"github.com/bissquit/fitgram/internal/domain"
)

// Repository defines the interface for users and their subscriptions.
type Repository interface {
	UpsertUser(ctx context.Context, user *domain.User) error
	// UpsertSubscription creates or replaces the user's access window.
	// Returns ErrUserNotFound when the user does not exist.
	UpsertSubscription(ctx context.Context, sub *domain.Subscription) error
	GetSubscription(ctx context.Context, userID int64) (*domain.Subscription, error)
}
