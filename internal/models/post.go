package models

import "time"

// Post is a bulletin board entry, independent of dreams.
type Post struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	AuthorName      string    `json:"author_name,omitempty"`
	AuthorNickname  string    `json:"author_nickname,omitempty"`
	ProfileImageURL *string   `json:"profile_image_url"`
	DisplayName     string    `json:"display_name,omitempty"`
}
