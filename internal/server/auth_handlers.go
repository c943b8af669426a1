package server

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"oneiro/internal/cache"
	"oneiro/internal/models"
	"oneiro/internal/repository"
	"oneiro/internal/validation"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username  string `json:"username"`
		Nickname  string `json:"nickname"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		BirthDate string `json:"birth_date"`
		Gender    string `json:"gender"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondError(c,
			models.NewValidationError("Username, email, and password are required"))
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}

	exists, err := s.userRepo.ExistsByEmailOrUsername(c.UserContext(), req.Email, req.Username)
	if err != nil {
		return models.RespondError(c, err)
	}
	if exists {
		return models.RespondError(c, models.NewConflictError("User already exists"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Username:     req.Username,
		Nickname:     req.Nickname,
		Email:        req.Email,
		PasswordHash: string(hashed),
		BirthDate:    req.BirthDate,
		Gender:       req.Gender,
	}
	if err := s.userRepo.Create(c.UserContext(), user); err != nil {
		return models.RespondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username, user.Email)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"token":   token,
		"user":    user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondError(c,
			models.NewValidationError("Email and password are required"))
	}

	user, err := s.userRepo.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		return models.RespondError(c, err)
	}
	if user == nil {
		return models.RespondError(c, models.NewUnauthorizedError("Invalid credentials"))
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); cmpErr != nil {
		return models.RespondError(c, models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(user.ID, user.Username, user.Email)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetProfile handles GET /api/auth/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile handles PUT /api/auth/profile. The request is multipart
// form data so a profile image can ride along with the field updates.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	ctx := c.UserContext()

	var upd repository.ProfileUpdate

	if nickname := c.FormValue("nickname"); nickname != "" {
		upd.Nickname = &nickname
	}
	if email := c.FormValue("email"); email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return models.RespondError(c, models.NewValidationError(err.Error()))
		}
		taken, err := s.userRepo.EmailTakenByOther(ctx, email, userID)
		if err != nil {
			return models.RespondError(c, err)
		}
		if taken {
			return models.RespondError(c, models.NewConflictError("Email already in use"))
		}
		upd.Email = &email
	}
	if password := c.FormValue("password"); password != "" {
		if err := validation.ValidatePassword(password); err != nil {
			return models.RespondError(c, models.NewValidationError(err.Error()))
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.RespondError(c, models.NewInternalError(err))
		}
		hash := string(hashed)
		upd.PasswordHash = &hash
	}
	if birthDate := c.FormValue("birth_date"); birthDate != "" {
		upd.BirthDate = &birthDate
	}
	if gender := c.FormValue("gender"); gender != "" {
		upd.Gender = &gender
	}

	if file, err := c.FormFile("profile_image"); err == nil && file != nil {
		f, err := file.Open()
		if err != nil {
			return models.RespondError(c, models.NewInternalError(err))
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return models.RespondError(c, models.NewInternalError(err))
		}
		url, err := s.imageService.SaveProfileImage(userID, content)
		if err != nil {
			return models.RespondError(c, err)
		}
		upd.ProfileImageURL = &url
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, upd); err != nil {
		return models.RespondError(c, err)
	}
	cache.InvalidateUser(ctx, s.redis, userID)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// generateToken creates a signed JWT for the given user.
func (s *Server) generateToken(userID int64, username, email string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(userID, 10),
		"username": username,
		"email":    email,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(time.Hour * 24 * 7).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks.
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
