package repository

import (
	"context"
	"strings"

	"oneiro/internal/models"
	"oneiro/internal/store"
)

// ReactionRepository defines persistence operations for emoji reactions.
type ReactionRepository interface {
	// Toggle adds the reaction if absent, removes it if present, and
	// reports whether it was added.
	Toggle(ctx context.Context, targetType string, targetID, userID int64, emoji string) (added bool, err error)
	Counts(ctx context.Context, targetType string, targetID int64) (map[string]int, error)
	CountsFor(ctx context.Context, targetType string, targetIDs []int64) (map[int64]map[string]int, error)
}

type reactionRepository struct {
	db store.Store
}

// NewReactionRepository returns a new ReactionRepository implementation.
func NewReactionRepository(db store.Store) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Toggle(ctx context.Context, targetType string, targetID, userID int64, emoji string) (bool, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT id FROM reactions WHERE target_type = ? AND target_id = ? AND user_id = ? AND emoji = ?",
		targetType, targetID, userID, emoji)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if row != nil {
		_, err := r.db.Execute(ctx, "DELETE FROM reactions WHERE id = ?", row.Int64("id"))
		if err != nil {
			return false, models.NewInternalError(err)
		}
		return false, nil
	}
	_, err = r.db.Execute(ctx,
		"INSERT INTO reactions (target_type, target_id, user_id, emoji) VALUES (?, ?, ?, ?)",
		targetType, targetID, userID, emoji)
	if err != nil {
		// Concurrent toggles can race past the existence check; the
		// unique index turns the duplicate into a no-op add.
		if isUniqueConstraintError(err) {
			return true, nil
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *reactionRepository) Counts(ctx context.Context, targetType string, targetID int64) (map[string]int, error) {
	res, err := r.db.Execute(ctx,
		"SELECT emoji, COUNT(id) AS cnt FROM reactions WHERE target_type = ? AND target_id = ? GROUP BY emoji",
		targetType, targetID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	counts := make(map[string]int, len(res.Rows))
	for _, row := range res.Rows {
		counts[row.String("emoji")] = int(row.Int64("cnt"))
	}
	return counts, nil
}

// CountsFor aggregates reaction counts for a batch of targets in one
// query, keyed by target id then emoji.
func (r *reactionRepository) CountsFor(ctx context.Context, targetType string, targetIDs []int64) (map[int64]map[string]int, error) {
	out := make(map[int64]map[string]int, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat(", ?", len(targetIDs))[2:]
	args := make([]any, 0, len(targetIDs)+1)
	args = append(args, targetType)
	for _, id := range targetIDs {
		args = append(args, id)
	}

	res, err := r.db.Execute(ctx,
		"SELECT target_id, emoji, COUNT(id) AS cnt FROM reactions WHERE target_type = ? AND target_id IN ("+placeholders+") GROUP BY target_id, emoji",
		args...)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range res.Rows {
		id := row.Int64("target_id")
		if out[id] == nil {
			out[id] = map[string]int{}
		}
		out[id][row.String("emoji")] = int(row.Int64("cnt"))
	}
	return out, nil
}
