package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users         map[int64]*domain.User
	subscriptions map[int64]*domain.Subscription
	upsertErr     error
}

func newMockRepository(userIDs ...int64) *mockRepository {
	m := &mockRepository{
		users:         make(map[int64]*domain.User),
		subscriptions: make(map[int64]*domain.Subscription),
	}
	for _, id := range userIDs {
		m.users[id] = &domain.User{TelegramID: id}
	}
	return m
}

func (m *mockRepository) UpsertUser(_ context.Context, user *domain.User) error {
	cp := *user
	m.users[user.TelegramID] = &cp
	return nil
}

func (m *mockRepository) UpsertSubscription(_ context.Context, sub *domain.Subscription) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if _, ok := m.users[sub.UserID]; !ok {
		return ErrUserNotFound
	}
	cp := *sub
	m.subscriptions[sub.UserID] = &cp
	return nil
}

func (m *mockRepository) GetSubscription(_ context.Context, userID int64) (*domain.Subscription, error) {
	sub, ok := m.subscriptions[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

// mockNotifier implements Notifier for testing.
type mockNotifier struct {
	sent []*domain.Subscription
	err  error
}

func (m *mockNotifier) NotifyAccessGranted(_ context.Context, sub *domain.Subscription) error {
	m.sent = append(m.sent, sub)
	return m.err
}

var fixedNow = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func newTestService(repo Repository, notifier Notifier) *Service {
	svc := NewService(repo, notifier)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestGrant_SetsExpiryFromNow(t *testing.T) {
	repo := newMockRepository(12345)
	notifier := &mockNotifier{}
	svc := newTestService(repo, notifier)

	sub, err := svc.Grant(context.Background(), SourceWebhook, GrantRequest{
		UserID:       12345,
		IDField:      "tg_user_id",
		DurationDays: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, fixedNow.Add(10*24*time.Hour), sub.ExpiresAt)
	assert.Equal(t, domain.DefaultPlan, sub.Plan)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(12345), notifier.sent[0].UserID)
}

func TestGrant_ResendResetsExpiry(t *testing.T) {
	repo := newMockRepository(1)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Grant(ctx, SourceWebhook, GrantRequest{UserID: 1, DurationDays: 30})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, SourceWebhook, GrantRequest{UserID: 1, DurationDays: 5, Plan: "trial"})
	require.NoError(t, err)

	stored := repo.subscriptions[1]
	assert.Equal(t, fixedNow.Add(5*24*time.Hour), stored.ExpiresAt)
	assert.Equal(t, "trial", stored.Plan)
}

func TestGrant_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService(newMockRepository(), nil).Grant(ctx, SourceWebhook, GrantRequest{UserID: 404})
	assert.ErrorIs(t, err, ErrUserNotFound)

	repo := newMockRepository(1)
	repo.upsertErr = errors.New("db down")
	notifier := &mockNotifier{}
	_, err = newTestService(repo, notifier).Grant(ctx, SourceEditor, GrantRequest{UserID: 1})
	require.Error(t, err)
	assert.Empty(t, notifier.sent)

	repo = newMockRepository(1)
	_, err = newTestService(repo, nil).Grant(ctx, SourceEditor, GrantRequest{UserID: 1, DurationDays: 200000})
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Empty(t, repo.subscriptions)
}

func TestGrant_NotificationFailureDoesNotFail(t *testing.T) {
	notifier := &mockNotifier{err: errors.New("bot blocked")}
	svc := newTestService(newMockRepository(1), notifier)

	_, err := svc.Grant(context.Background(), SourceWebhook, GrantRequest{UserID: 1, DurationDays: 1})
	assert.NoError(t, err)
}

func TestStatus(t *testing.T) {
	repo := newMockRepository(1, 2)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	status, err := svc.Status(ctx, 1)
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Nil(t, status.ExpiresAt)

	_, err = svc.Grant(ctx, SourceEditor, GrantRequest{UserID: 1, DurationDays: 3})
	require.NoError(t, err)
	status, err = svc.Status(ctx, 1)
	require.NoError(t, err)
	assert.True(t, status.Active)
	require.NotNil(t, status.ExpiresAt)

	repo.subscriptions[2] = &domain.Subscription{UserID: 2, Plan: "standard", ExpiresAt: fixedNow.Add(-time.Second)}
	status, err = svc.Status(ctx, 2)
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Equal(t, "standard", status.Plan)
}
