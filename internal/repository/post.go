package repository

import (
	"context"

	"oneiro/internal/models"
	"oneiro/internal/store"
)

// PostRepository defines persistence operations for bulletin posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Delete(ctx context.Context, id, userID int64, admin bool) error
}

type postRepository struct {
	db store.Store
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db store.Store) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	res, err := r.db.Execute(ctx,
		"INSERT INTO posts (user_id, title, content) VALUES (?, ?, ?)",
		post.UserID, post.Title, post.Content)
	if err != nil {
		return models.NewInternalError(err)
	}
	post.ID = res.InsertID
	return nil
}

func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	res, err := r.db.Execute(ctx, `
		SELECT p.id, p.user_id, p.title, p.content, p.created_at,
		       u.username, u.nickname, u.profile_image_url
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	posts := make([]models.Post, 0, len(res.Rows))
	for _, row := range res.Rows {
		posts = append(posts, *postFromRow(row))
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	row, err := r.db.FetchOne(ctx, `
		SELECT p.id, p.user_id, p.title, p.content, p.created_at,
		       u.username, u.nickname, u.profile_image_url
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = ?`, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if row == nil {
		return nil, models.NewNotFoundError("Post")
	}
	return postFromRow(row), nil
}

func (r *postRepository) Delete(ctx context.Context, id, userID int64, admin bool) error {
	query := "DELETE FROM posts WHERE id = ?"
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
		return models.NewNotFoundError("Post")
	}
	return nil
}

func postFromRow(row store.Row) *models.Post {
	p := &models.Post{
		ID:              row.Int64("id"),
		UserID:          row.Int64("user_id"),
		Title:           row.String("title"),
		Content:         row.String("content"),
		CreatedAt:       row.Time("created_at"),
		AuthorName:      row.String("username"),
		AuthorNickname:  row.String("nickname"),
		ProfileImageURL: row.NullString("profile_image_url"),
	}
	p.DisplayName = p.AuthorNickname
	if p.DisplayName == "" {
		p.DisplayName = p.AuthorName
	}
	return p
}
