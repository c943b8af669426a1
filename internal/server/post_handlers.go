package server

import (
	"github.com/gofiber/fiber/v2"

	"oneiro/internal/models"
)

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postRepo.List(c.UserContext())
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}
	if req.Title == "" || req.Content == "" {
		return models.RespondError(c, models.NewValidationError("Title and content are required"))
	}

	post := &models.Post{
		UserID:  currentUserID(c),
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.postRepo.Create(c.UserContext(), post); err != nil {
		return models.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"postId":  post.ID,
	})
}

// DeletePost handles DELETE /api/posts/:id. Admins may delete any post.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondError(c, err)
	}

	if err := s.postRepo.Delete(c.UserContext(), id, currentUserID(c), s.isAdminUser(c)); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}
