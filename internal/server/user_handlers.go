package server

import (
	"campusconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
//
//	@Summary	Current user's profile
//	@Tags		users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	models.User
//	@Router		/api/users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.directory.GetUser(c.Context(), actorID(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(user)
}

// GetFeatureFlags handles GET /api/feature-flags and returns the flags
// evaluated for the current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(actorID(c)))
}
