package models

import "time"

// Reaction target kinds. Reactions carry a weak polymorphic reference
// (kind + id); the store does not enforce referential integrity for it.
const (
	TargetDream   = "dream"
	TargetComment = "comment"
)

// AllowedEmojis is the fixed set of accepted reaction emojis.
var AllowedEmojis = []string{"👍", "❤️", "😊", "😢", "😮"}

// AllowedTargetTypes is the fixed set of accepted reaction targets.
var AllowedTargetTypes = []string{TargetDream, TargetComment}

// Reaction is one user's emoji reaction on a dream or comment. At most
// one row may exist per (target_type, target_id, user_id, emoji).
type Reaction struct {
	ID         int64     `json:"id"`
	TargetType string    `json:"target_type"`
	TargetID   int64     `json:"target_id"`
	UserID     int64     `json:"user_id"`
	Emoji      string    `json:"emoji"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmojiAllowed reports whether the emoji is in the fixed allowed set.
func EmojiAllowed(emoji string) bool {
	for _, e := range AllowedEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// TargetTypeAllowed reports whether the target kind is valid.
func TargetTypeAllowed(t string) bool {
	for _, a := range AllowedTargetTypes {
		if a == t {
			return true
		}
	}
	return false
}
