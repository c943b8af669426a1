// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"strings"

	"oneiro/internal/models"
	"oneiro/internal/store"
)

// ProfileUpdate carries partial-update fields for a user profile. Nil
// pointers mean "leave unchanged".
type ProfileUpdate struct {
	Nickname        *string
	Email           *string
	BirthDate       *string
	Gender          *string
	PasswordHash    *string
	ProfileImageURL *string
}

// Demographic is the raw material for admin statistics.
type Demographic struct {
	BirthDate string
	Gender    string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	EmailTakenByOther(ctx context.Context, email string, selfID int64) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) error
	IsAdmin(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
	Demographics(ctx context.Context) ([]Demographic, error)
}

type userRepository struct {
	db store.Store
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db store.Store) UserRepository {
	return &userRepository{db: db}
}

const userColumns = "id, username, nickname, email, password_hash, birth_date, gender, profile_image_url, is_admin, created_at"

func userFromRow(row store.Row) *models.User {
	return &models.User{
		ID:              row.Int64("id"),
		Username:        row.String("username"),
		Nickname:        row.String("nickname"),
		Email:           row.String("email"),
		PasswordHash:    row.String("password_hash"),
		BirthDate:       row.String("birth_date"),
		Gender:          row.String("gender"),
		ProfileImageURL: row.NullString("profile_image_url"),
		IsAdmin:         row.Bool("is_admin"),
		CreatedAt:       row.Time("created_at"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row, err := r.db.FetchOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if row == nil {
		return nil, models.NewNotFoundError("User")
	}
	return userFromRow(row), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row, err := r.db.FetchOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if row == nil {
		return nil, nil
	}
	return userFromRow(row), nil
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT id FROM users WHERE email = ? OR username = ?", email, username)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return row != nil, nil
}

func (r *userRepository) EmailTakenByOther(ctx context.Context, email string, selfID int64) (bool, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT id FROM users WHERE email = ? AND id != ?", email, selfID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return row != nil, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	res, err := r.db.Execute(ctx,
		"INSERT INTO users (username, nickname, email, password_hash, birth_date, gender) VALUES (?, ?, ?, ?, ?, ?)",
		user.Username, nullable(user.Nickname), user.Email, user.PasswordHash,
		nullable(user.BirthDate), nullable(user.Gender))
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(err)
	}
	user.ID = res.InsertID
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) error {
	var (
		sets []string
		args []any
	)
	appendSet := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	appendSet("nickname", upd.Nickname)
	appendSet("email", upd.Email)
	appendSet("birth_date", upd.BirthDate)
	appendSet("gender", upd.Gender)
	appendSet("password_hash", upd.PasswordHash)
	appendSet("profile_image_url", upd.ProfileImageURL)

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := r.db.Execute(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already in use")
		}
		return models.NewInternalError(err)
	}
	if res.RowCount == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}

func (r *userRepository) IsAdmin(ctx context.Context, id int64) (bool, error) {
	row, err := r.db.FetchOne(ctx, "SELECT is_admin FROM users WHERE id = ?", id)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if row == nil {
		return false, nil
	}
	return row.Bool("is_admin"), nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	row, err := r.db.FetchOne(ctx, "SELECT COUNT(id) AS total_users FROM users")
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return row.Int64("total_users"), nil
}

func (r *userRepository) Demographics(ctx context.Context) ([]Demographic, error) {
	res, err := r.db.Execute(ctx, "SELECT birth_date, gender FROM users")
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make([]Demographic, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, Demographic{
			BirthDate: row.String("birth_date"),
			Gender:    row.String("gender"),
		})
	}
	return out, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports
	// "UNIQUE constraint failed".
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505")
}
