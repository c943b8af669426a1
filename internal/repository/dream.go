package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"oneiro/internal/models"
	"oneiro/internal/store"
)

// DreamUpdate carries partial-update fields for a dream entry. Nil
// pointers mean "leave unchanged".
type DreamUpdate struct {
	Date     *string
	Title    *string
	Content  *string
	Emotions []string
	IsPublic *bool
}

// DreamRepository defines persistence operations for dream entries.
type DreamRepository interface {
	Create(ctx context.Context, dream *models.Dream) error
	ListByUser(ctx context.Context, userID int64) ([]models.Dream, error)
	GetForUser(ctx context.Context, id, userID int64) (*models.Dream, error)
	GetByID(ctx context.Context, id int64) (*models.Dream, error)
	Update(ctx context.Context, id, userID int64, upd DreamUpdate, admin bool) error
	Delete(ctx context.Context, id, userID int64, admin bool) error
	SetVisibility(ctx context.Context, id, userID int64, public bool) error
	OwnedBy(ctx context.Context, id, userID int64) (bool, error)
	ListPublic(ctx context.Context) ([]models.CommunityDream, error)
	ListRecentByUser(ctx context.Context, userID int64, before string, limit int) ([]models.Dream, error)
	Count(ctx context.Context) (int64, error)
}

type dreamRepository struct {
	db store.Store
}

// NewDreamRepository returns a new DreamRepository implementation.
func NewDreamRepository(db store.Store) DreamRepository {
	return &dreamRepository{db: db}
}

const dreamColumns = "id, user_id, date, title, content, emotions, is_public, created_at, updated_at"

func dreamFromRow(row store.Row) (*models.Dream, error) {
	d := &models.Dream{
		ID:        row.Int64("id"),
		UserID:    row.Int64("user_id"),
		Date:      row.String("date"),
		Title:     row.String("title"),
		Content:   row.String("content"),
		IsPublic:  row.Bool("is_public"),
		CreatedAt: row.Time("created_at"),
	}
	if row.Has("updated_at") && row.NullString("updated_at") != nil {
		t := row.Time("updated_at")
		d.UpdatedAt = &t
	}
	if raw := row.String("emotions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &d.Emotions); err != nil {
			return nil, fmt.Errorf("decode emotions for dream %d: %w", d.ID, err)
		}
	}
	if d.Emotions == nil {
		d.Emotions = []string{}
	}
	return d, nil
}

func encodeEmotions(emotions []string) (string, error) {
	if emotions == nil {
		emotions = []string{}
	}
	raw, err := json.Marshal(emotions)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *dreamRepository) Create(ctx context.Context, dream *models.Dream) error {
	emotions, err := encodeEmotions(dream.Emotions)
	if err != nil {
		return models.NewInternalError(err)
	}
	res, err := r.db.Execute(ctx,
		"INSERT INTO dreams (user_id, date, title, content, emotions, is_public) VALUES (?, ?, ?, ?, ?, ?)",
		dream.UserID, dream.Date, dream.Title, dream.Content, emotions, dream.IsPublic)
	if err != nil {
		return models.NewInternalError(err)
	}
	dream.ID = res.InsertID
	return nil
}

func (r *dreamRepository) ListByUser(ctx context.Context, userID int64) ([]models.Dream, error) {
	res, err := r.db.Execute(ctx,
		"SELECT "+dreamColumns+" FROM dreams WHERE user_id = ? ORDER BY date DESC, id DESC",
		userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	dreams := make([]models.Dream, 0, len(res.Rows))
	for _, row := range res.Rows {
		d, err := dreamFromRow(row)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		dreams = append(dreams, *d)
	}
	return dreams, nil
}

func (r *dreamRepository) GetForUser(ctx context.Context, id, userID int64) (*models.Dream, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT "+dreamColumns+" FROM dreams WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if row == nil {
		return nil, models.NewNotFoundError("Dream")
	}
	d, err := dreamFromRow(row)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return d, nil
}

func (r *dreamRepository) GetByID(ctx context.Context, id int64) (*models.Dream, error) {
	row, err := r.db.FetchOne(ctx, "SELECT "+dreamColumns+" FROM dreams WHERE id = ?", id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if row == nil {
		return nil, models.NewNotFoundError("Dream")
	}
	d, err := dreamFromRow(row)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return d, nil
}

func (r *dreamRepository) Update(ctx context.Context, id, userID int64, upd DreamUpdate, admin bool) error {
	var (
		sets []string
		args []any
	)
	if upd.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *upd.Date)
	}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.Emotions != nil {
		emotions, err := encodeEmotions(upd.Emotions)
		if err != nil {
			return models.NewInternalError(err)
		}
		sets = append(sets, "emotions = ?")
		args = append(args, emotions)
	}
	if upd.IsPublic != nil {
		sets = append(sets, "is_public = ?")
		args = append(args, *upd.IsPublic)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	query := "UPDATE dreams SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	if !admin {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	res, err := r.db.Execute(ctx, query, args...)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.RowCount == 0 {
		return models.NewNotFoundError("Dream")
	}
	return nil
}

func (r *dreamRepository) Delete(ctx context.Context, id, userID int64, admin bool) error {
	query := "DELETE FROM dreams WHERE id = ?"
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
		return models.NewNotFoundError("Dream")
	}
	return nil
}

func (r *dreamRepository) SetVisibility(ctx context.Context, id, userID int64, public bool) error {
	res, err := r.db.Execute(ctx,
		"UPDATE dreams SET is_public = ? WHERE id = ? AND user_id = ?",
		public, id, userID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.RowCount == 0 {
		return models.NewNotFoundError("Dream")
	}
	return nil
}

func (r *dreamRepository) OwnedBy(ctx context.Context, id, userID int64) (bool, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT id FROM dreams WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return row != nil, nil
}

// ListPublic returns every public dream joined with its author's display
// identity and latest interpretation, newest first. A dream with several
// analyses joins once per analysis, so rows are deduplicated by dream id
// keeping the first (latest) interpretation seen.
func (r *dreamRepository) ListPublic(ctx context.Context) ([]models.CommunityDream, error) {
	res, err := r.db.Execute(ctx, `
		SELECT d.id, d.date, d.title, d.content, d.emotions, d.created_at,
		       u.username, u.nickname, u.profile_image_url,
		       a.analysis_text
		FROM dreams d
		JOIN users u ON u.id = d.user_id
		LEFT JOIN analyses a ON a.dream_id = d.id
		WHERE d.is_public = ?
		ORDER BY d.created_at DESC, d.id DESC, a.created_at DESC`,
		true)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	seen := make(map[int64]bool, len(res.Rows))
	dreams := make([]models.CommunityDream, 0, len(res.Rows))
	for _, row := range res.Rows {
		id := row.Int64("id")
		if seen[id] {
			continue
		}
		seen[id] = true

		cd := models.CommunityDream{
			ID:              id,
			Date:            row.String("date"),
			Title:           row.String("title"),
			Content:         row.String("content"),
			CreatedAt:       row.Time("created_at"),
			AuthorName:      row.String("username"),
			AuthorNickname:  row.String("nickname"),
			ProfileImageURL: row.NullString("profile_image_url"),
			Reactions:       map[string]int{},
		}
		cd.DisplayName = cd.AuthorNickname
		if cd.DisplayName == "" {
			cd.DisplayName = cd.AuthorName
		}
		if interp := row.NullString("analysis_text"); interp != nil {
			cd.Interpretation = *interp
		}
		if raw := row.String("emotions"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &cd.Emotions); err != nil {
				return nil, models.NewInternalError(fmt.Errorf("decode emotions for dream %d: %w", id, err))
			}
		}
		if cd.Emotions == nil {
			cd.Emotions = []string{}
		}
		dreams = append(dreams, cd)
	}
	return dreams, nil
}

// ListRecentByUser returns up to limit dreams of a user dated strictly
// before the given date, most recent first. Used to build interpretation
// context from dream history.
func (r *dreamRepository) ListRecentByUser(ctx context.Context, userID int64, before string, limit int) ([]models.Dream, error) {
	res, err := r.db.Execute(ctx,
		"SELECT "+dreamColumns+" FROM dreams WHERE user_id = ? AND date < ? ORDER BY date DESC, id DESC LIMIT ?",
		userID, before, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	dreams := make([]models.Dream, 0, len(res.Rows))
	for _, row := range res.Rows {
		d, err := dreamFromRow(row)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		dreams = append(dreams, *d)
	}
	return dreams, nil
}

func (r *dreamRepository) Count(ctx context.Context) (int64, error) {
	row, err := r.db.FetchOne(ctx, "SELECT COUNT(id) AS total_dreams FROM dreams")
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return row.Int64("total_dreams"), nil
}
