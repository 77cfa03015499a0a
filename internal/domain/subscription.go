package domain

import "time"

// DefaultPlan is recorded when a grant does not name a plan.
const DefaultPlan = "standard"

// Subscription is a user's access window.
type Subscription struct {
	UserID    int64     `json:"user_id"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActiveAt reports whether the access window is open at t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}
