package domain

import "time"

// Profile is the per-user questionnaire shown in the mini app.
type Profile struct {
	Name      string    `json:"name"`
	Birthdate string    `json:"birthdate"`
	Notes     string    `json:"notes"`
	UpdatedAt time.Time `json:"updated_at"`
}
