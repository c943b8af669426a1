package repository

import (
	"context"

	"oneiro/internal/models"
	"oneiro/internal/store"
)

// CommentRepository defines persistence operations for dream comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByDream(ctx context.Context, dreamID int64) ([]models.Comment, error)
	Delete(ctx context.Context, id, userID int64, admin bool) error
}

type commentRepository struct {
	db store.Store
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db store.Store) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ParentID != nil {
		// A reply must target a comment on the same dream.
		row, err := r.db.FetchOne(ctx,
			"SELECT id FROM comments WHERE id = ? AND dream_id = ?",
			*comment.ParentID, comment.DreamID)
		if err != nil {
			return models.NewInternalError(err)
		}
		if row == nil {
			return models.NewNotFoundError("Parent comment")
		}
	}
	res, err := r.db.Execute(ctx,
		"INSERT INTO comments (dream_id, user_id, parent_id, content) VALUES (?, ?, ?, ?)",
		comment.DreamID, comment.UserID, comment.ParentID, comment.Content)
	if err != nil {
		return models.NewInternalError(err)
	}
	comment.ID = res.InsertID
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	row, err := r.db.FetchOne(ctx, `
		SELECT c.id, c.dream_id, c.user_id, c.parent_id, c.content, c.created_at,
		       u.username, u.nickname, u.profile_image_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = ?`, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if row == nil {
		return nil, models.NewNotFoundError("Comment")
	}
	return commentFromRow(row), nil
}

func (r *commentRepository) ListByDream(ctx context.Context, dreamID int64) ([]models.Comment, error) {
	res, err := r.db.Execute(ctx, `
		SELECT c.id, c.dream_id, c.user_id, c.parent_id, c.content, c.created_at,
		       u.username, u.nickname, u.profile_image_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.dream_id = ?
		ORDER BY c.created_at ASC, c.id ASC`, dreamID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comments := make([]models.Comment, 0, len(res.Rows))
	for _, row := range res.Rows {
		comments = append(comments, *commentFromRow(row))
	}
	return comments, nil
}

func (r *commentRepository) Delete(ctx context.Context, id, userID int64, admin bool) error {
	query := "DELETE FROM comments WHERE id = ?"
	args := []any{id}
	if !admin {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	res, err := r.db.Execute(ctx, query, args...)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.RowCount == 0 {
		return models.NewNotFoundError("Comment")
	}
	return nil
}

func commentFromRow(row store.Row) *models.Comment {
	c := &models.Comment{
		ID:              row.Int64("id"),
		DreamID:         row.Int64("dream_id"),
		UserID:          row.Int64("user_id"),
		Content:         row.String("content"),
		CreatedAt:       row.Time("created_at"),
		AuthorName:      row.String("username"),
		AuthorNickname:  row.String("nickname"),
		ProfileImageURL: row.NullString("profile_image_url"),
		Reactions:       map[string]int{},
	}
	if v := row.Int64("parent_id"); v != 0 {
		c.ParentID = &v
	}
	c.DisplayName = c.AuthorNickname
	if c.DisplayName == "" {
		c.DisplayName = c.AuthorName
	}
	return c
}
