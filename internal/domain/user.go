package domain

import "time"

// User is an end-user known by Telegram identity.
type User struct {
	TelegramID int64     `json:"tg_user_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Editor is an allow-list entry granting full content access.
type Editor struct {
	TelegramID int64     `json:"tg_user_id"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}
