package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"oneiro/internal/models"
)

// currentUserID reads the authenticated user id set by AuthRequired.
func currentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("userID").(int64)
	return id
}

// parseIDParam parses a positive integer route parameter.
func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + name)
	}
	return id, nil
}

// isAdminUser reports whether the authenticated user is an admin.
// Lookup failures count as non-admin.
func (s *Server) isAdminUser(c *fiber.Ctx) bool {
	admin, err := s.userRepo.IsAdmin(c.UserContext(), currentUserID(c))
	return err == nil && admin
}
