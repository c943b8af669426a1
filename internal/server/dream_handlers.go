package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"oneiro/internal/models"
	"oneiro/internal/repository"
	"oneiro/internal/validation"
)

type dreamRequest struct {
	Date     string   `json:"date"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Emotions []string `json:"emotions"`
}

// CreateDream handles POST /api/dreams
func (s *Server) CreateDream(c *fiber.Ctx) error {
	var req dreamRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}
	if err := validation.ValidateDreamInput(req.Date, req.Title, req.Content); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}

	dream := &models.Dream{
		UserID:   currentUserID(c),
		Date:     req.Date,
		Title:    req.Title,
		Content:  req.Content,
		Emotions: req.Emotions,
	}
	if err := s.dreamRepo.Create(c.UserContext(), dream); err != nil {
		return models.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Dream saved successfully",
		"dreamId": dream.ID,
	})
}

// GetDreams handles GET /api/dreams
func (s *Server) GetDreams(c *fiber.Ctx) error {
	dreams, err := s.dreamRepo.ListByUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"dreams": dreams})
}

// GetDream handles GET /api/dreams/:id. The latest analysis, when one
// exists, is attached to the response.
func (s *Server) GetDream(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondError(c, err)
	}

	dream, err := s.dreamRepo.GetForUser(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}

	analysis, err := s.analysisRepo.GetLatestByDream(c.UserContext(), id)
	if err == nil {
		dream.Analysis = analysis
	} else {
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
			return models.RespondError(c, err)
		}
	}

	return c.JSON(fiber.Map{"dream": dream})
}

// UpdateDream handles PUT /api/dreams/:id
func (s *Server) UpdateDream(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondError(c, err)
	}

	var req dreamRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}
	if err := validation.ValidateDreamInput(req.Date, req.Title, req.Content); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}

	emotions := req.Emotions
	if emotions == nil {
		emotions = []string{}
	}
	upd := repository.DreamUpdate{
		Date:     &req.Date,
		Title:    &req.Title,
		Content:  &req.Content,
		Emotions: emotions,
	}
	if err := s.dreamRepo.Update(c.UserContext(), id, currentUserID(c), upd, false); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Dream updated successfully"})
}

// DeleteDream handles DELETE /api/dreams/:id. Admins may delete any
// dream.
func (s *Server) DeleteDream(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondError(c, err)
	}

	if err := s.dreamRepo.Delete(c.UserContext(), id, currentUserID(c), s.isAdminUser(c)); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Dream deleted successfully"})
}
