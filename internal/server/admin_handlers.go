package server

import (
	"github.com/gofiber/fiber/v2"

	"oneiro/internal/models"
)

// GetStats handles GET /api/admin/stats
func (s *Server) GetStats(c *fiber.Ctx) error {
	overview, err := s.statsService.Overview(c.UserContext())
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(overview)
}

// GetDetailedStats handles GET /api/admin/stats/detailed
func (s *Server) GetDetailedStats(c *fiber.Ctx) error {
	stats, err := s.statsService.Detailed(c.UserContext())
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(stats)
}

// GetFeatureFlags handles GET /api/admin/flags. It returns the raw flag
// configuration plus the evaluation for the requesting admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	return c.JSON(fiber.Map{
		"flags":     s.flags.Raw(),
		"evaluated": s.flags.Snapshot(userID),
	})
}
