// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered dreamer.
type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Nickname        string    `json:"nickname,omitempty"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	BirthDate       string    `json:"birth_date,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	ProfileImageURL *string   `json:"profile_image_url"`
	IsAdmin         bool      `json:"is_admin,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DisplayName prefers the nickname over the username.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
