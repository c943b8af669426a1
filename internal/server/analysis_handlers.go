package server

import (
	"github.com/gofiber/fiber/v2"

	"oneiro/internal/models"
)

// AnalyzeDream handles POST /api/analysis/analyze
func (s *Server) AnalyzeDream(c *fiber.Ctx) error {
	var req struct {
		DreamID int64 `json:"dreamId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}
	if req.DreamID <= 0 {
		return models.RespondError(c, models.NewValidationError("Dream ID is required"))
	}

	userID := currentUserID(c)
	// Operational kill switch for the external model, e.g. during an
	// upstream incident: FEATURE_FLAGS="disable_analysis=on".
	if s.flags.Enabled("disable_analysis", userID) {
		return models.RespondError(c, models.NewUpstreamError("Dream analysis is temporarily unavailable", nil))
	}

	result, err := s.analysisService.Analyze(c.UserContext(), req.DreamID, userID)
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":    "Analysis completed successfully",
		"analysisId": result.AnalysisID,
		"analysis":   result.Analysis,
	})
}

// GetAnalysis handles GET /api/analysis/:dreamId
func (s *Server) GetAnalysis(c *fiber.Ctx) error {
	dreamID, err := parseIDParam(c, "dreamId")
	if err != nil {
		return models.RespondError(c, err)
	}

	analysis, err := s.analysisService.GetLatest(c.UserContext(), dreamID, currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"analysis": analysis})
}
