package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"oneiro/internal/cache"
	"oneiro/internal/models"
	"oneiro/internal/observability"
)

// GetCommunityDreams handles GET /api/community. The feed joins public
// dreams with their authors, latest interpretations and reaction
// counts, and is briefly cached.
func (s *Server) GetCommunityDreams(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var cached []models.CommunityDream
	if cache.GetJSON(ctx, s.redis, cache.CommunityFeedKey, &cached) {
		return c.JSON(fiber.Map{"dreams": cached})
	}

	dreams, err := s.dreamRepo.ListPublic(ctx)
	if err != nil {
		return models.RespondError(c, err)
	}

	ids := make([]int64, 0, len(dreams))
	for _, d := range dreams {
		ids = append(ids, d.ID)
	}
	counts, err := s.reactionRepo.CountsFor(ctx, models.TargetDream, ids)
	if err != nil {
		return models.RespondError(c, err)
	}
	for i := range dreams {
		if m, ok := counts[dreams[i].ID]; ok {
			dreams[i].Reactions = m
		}
	}

	cache.SetJSON(ctx, s.redis, cache.CommunityFeedKey, dreams, cache.CommunityFeedTTL)
	return c.JSON(fiber.Map{"dreams": dreams})
}

// ToggleReaction handles POST /api/community/react
func (s *Server) ToggleReaction(c *fiber.Ctx) error {
	var req struct {
		TargetType string `json:"target_type"`
		TargetID   int64  `json:"target_id"`
		Emoji      string `json:"emoji"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}
	if !models.TargetTypeAllowed(req.TargetType) || req.TargetID <= 0 || !models.EmojiAllowed(req.Emoji) {
		return models.RespondError(c, models.NewValidationError("Invalid reaction parameters"))
	}

	added, err := s.reactionRepo.Toggle(c.UserContext(), req.TargetType, req.TargetID, currentUserID(c), req.Emoji)
	if err != nil {
		return models.RespondError(c, err)
	}
	cache.InvalidateCommunityFeed(c.UserContext(), s.redis)

	if added {
		observability.ReactionToggles.WithLabelValues("added").Inc()
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Reaction added",
			"added":   true,
		})
	}
	observability.ReactionToggles.WithLabelValues("removed").Inc()
	return c.JSON(fiber.Map{
		"message": "Reaction removed",
		"added":   false,
	})
}

// SetDreamVisibility handles PUT /api/community/:dreamId/visibility
func (s *Server) SetDreamVisibility(c *fiber.Ctx) error {
	dreamID, err := parseIDParam(c, "dreamId")
	if err != nil {
		return models.RespondError(c, err)
	}

	var req struct {
		IsPublic bool `json:"isPublic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}

	if err := s.dreamRepo.SetVisibility(c.UserContext(), dreamID, currentUserID(c), req.IsPublic); err != nil {
		return models.RespondError(c, err)
	}
	cache.InvalidateCommunityFeed(c.UserContext(), s.redis)

	return c.JSON(fiber.Map{
		"message":  "Visibility updated successfully",
		"isPublic": req.IsPublic,
	})
}

// GetComments handles GET /api/community/:dreamId/comments. Public:
// anyone can read the comment threads of a shared dream.
func (s *Server) GetComments(c *fiber.Ctx) error {
	dreamID, err := parseIDParam(c, "dreamId")
	if err != nil {
		return models.RespondError(c, err)
	}

	comments, err := s.commentRepo.ListByDream(c.UserContext(), dreamID)
	if err != nil {
		return models.RespondError(c, err)
	}

	ids := make([]int64, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.ID)
	}
	counts, err := s.reactionRepo.CountsFor(c.UserContext(), models.TargetComment, ids)
	if err != nil {
		return models.RespondError(c, err)
	}
	for i := range comments {
		if m, ok := counts[comments[i].ID]; ok {
			comments[i].Reactions = m
		}
	}

	return c.JSON(fiber.Map{"comments": comments})
}

// CreateComment handles POST /api/community/:dreamId/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	dreamID, err := parseIDParam(c, "dreamId")
	if err != nil {
		return models.RespondError(c, err)
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c, models.NewValidationError("Invalid request body"))
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return models.RespondError(c, models.NewValidationError("Comment content is required"))
	}

	comment := &models.Comment{
		DreamID:  dreamID,
		UserID:   currentUserID(c),
		ParentID: req.ParentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(c.UserContext(), comment); err != nil {
		return models.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Comment added successfully",
		"commentId": comment.ID,
	})
}

// DeleteComment handles DELETE /api/community/comments/:id. Admins may
// delete any comment.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondError(c, err)
	}

	if err := s.commentRepo.Delete(c.UserContext(), id, currentUserID(c), s.isAdminUser(c)); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}
