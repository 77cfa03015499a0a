package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"full-body-4-weeks", true},
		{"abc", true},
		{"2024", true},
		{"Program 1", false},
		{"program_1", false},
		{"Upper", false},
		{"", false},
		{"привет", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidSlug(tt.slug))
		})
	}
}

func TestSubscription_IsActiveAt(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	sub := &Subscription{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, sub.IsActiveAt(now))
	assert.False(t, sub.IsActiveAt(now.Add(time.Hour)))
	assert.False(t, sub.IsActiveAt(now.Add(2*time.Hour)))
}

func TestCredentialKinds(t *testing.T) {
	var c Credential = TelegramVerified{UserID: 7}
	assert.Equal(t, CredentialTelegram, c.Kind())

	c = DevPinOverride{}
	assert.Equal(t, CredentialDevPin, c.Kind())
}
