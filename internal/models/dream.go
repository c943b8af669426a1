package models

import "time"

// Dream represents a single journal entry. Emotions are stored
// serialized as a JSON array and deserialized on read.
type Dream struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Date      string     `json:"date"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Emotions  []string   `json:"emotions"`
	IsPublic  bool       `json:"is_public"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Analysis is the latest analysis row for this dream, attached on
	// single-dream reads when one exists.
	Analysis *Analysis `json:"analysis,omitempty"`
}

// CommunityDream is a public dream as shown in the community feed.
type CommunityDream struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	Date            string         `json:"date"`
	Emotions        []string       `json:"emotions"`
	CreatedAt       time.Time      `json:"created_at"`
	AuthorName      string         `json:"author_name"`
	AuthorNickname  string         `json:"author_nickname,omitempty"`
	ProfileImageURL *string        `json:"profile_image_url"`
	DisplayName     string         `json:"display_name"`
	Interpretation  string         `json:"overall_interpretation,omitempty"`
	Reactions       map[string]int `json:"reactions"`
}
