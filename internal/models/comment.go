package models

import "time"

// Comment is a comment on a public dream. ParentID, when set, points at
// another comment on the same dream (threaded replies).
type Comment struct {
	ID              int64          `json:"id"`
	DreamID         int64          `json:"dream_id"`
	UserID          int64          `json:"user_id"`
	ParentID        *int64         `json:"parent_id"`
	Content         string         `json:"content"`
	CreatedAt       time.Time      `json:"created_at"`
	AuthorName      string         `json:"author_name,omitempty"`
	AuthorNickname  string         `json:"author_nickname,omitempty"`
	ProfileImageURL *string        `json:"profile_image_url"`
	DisplayName     string         `json:"display_name,omitempty"`
	Reactions       map[string]int `json:"reactions,omitempty"`
}
