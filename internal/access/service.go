// Package access manages end-users and their subscription windows: grants
// from the external automation webhook or from editors, and status lookups
// for the Mini App.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/bissquit/fitgram/internal/pkg/metrics"
)

// Grant sources, used as a metric label.
const (
	SourceWebhook = "webhook"
	SourceEditor  = "editor"
)

// Notifier tells a user that access was granted.
type Notifier interface {
	NotifyAccessGranted(ctx context.Context, sub *domain.Subscription) error
}

// Status is a user's current access state.
type Status struct {
	Active    bool       `json:"active"`
	Plan      string     `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Service implements access business logic.
type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
}

// NewService creates a new access service. notifier may be nil.
func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Grant sets the user's access window to now + DurationDays. Repeating a
// grant resets the expiry rather than extending it.
func (s *Service) Grant(ctx context.Context, source string, req GrantRequest) (*domain.Subscription, error) {
	logger := ctxlog.FromContext(ctx).With(
		"source", source,
		"tg_user_id", req.UserID,
		"id_field", req.IDField,
	)

	plan := req.Plan
	if plan == "" {
		plan = domain.DefaultPlan
	}
	days := req.DurationDays
	if days <= 0 {
		days = DefaultDurationDays
	}
	if days > MaxDurationDays {
		recordGrant(source, req.IDField, "rejected")
		return nil, ErrInvalidDuration
	}

	sub := &domain.Subscription{
		UserID:    req.UserID,
		Plan:      plan,
		ExpiresAt: s.now().UTC().Add(time.Duration(days) * 24 * time.Hour),
	}

	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		result := "error"
		if errors.Is(err, ErrUserNotFound) {
			result = "unknown_user"
		}
		recordGrant(source, req.IDField, result)
		logger.Warn("access grant failed", "error", err)
		return nil, err
	}

	recordGrant(source, req.IDField, "success")
	logger.Info("access granted", "plan", sub.Plan, "expires_at", sub.ExpiresAt)

	if s.notifier != nil {
		if err := s.notifier.NotifyAccessGranted(ctx, sub); err != nil {
			logger.Warn("access grant notification failed", "error", err)
		}
	}

	return sub, nil
}

// RecordRejected counts a grant that failed validation before reaching the store.
func (s *Service) RecordRejected(source, idField string) {
	recordGrant(source, idField, "rejected")
}

// Status returns the user's access state. A user without a subscription is
// reported as inactive.
func (s *Service) Status(ctx context.Context, userID int64) (*Status, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, err
	}

	expiresAt := sub.ExpiresAt
	return &Status{
		Active:    sub.IsActiveAt(s.now()),
		Plan:      sub.Plan,
		ExpiresAt: &expiresAt,
	}, nil
}

// RegisterUser creates the user or refreshes their Telegram profile fields.
func (s *Service) RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func recordGrant(source, idField, result string) {
	if idField == "" {
		idField = "none"
	}
	metrics.AccessGrants.WithLabelValues(source, idField, result).Inc()
}
