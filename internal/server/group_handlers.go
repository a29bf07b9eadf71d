package server

import (
	"campusconnect/internal/cache"
	"campusconnect/internal/models"
	"campusconnect/internal/projection"
	"campusconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetGroups handles GET /api/groups
func (s *Server) GetGroups(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	groups, err := s.groupService.ListGroups(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	views, err := s.projector.ProjectGroups(c.Context(), groups)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(views)
}

// GetGroup handles GET /api/groups/:id
func (s *Server) GetGroup(c *fiber.Ctx) error {
	ctx := c.Context()
	id := c.Params("id")

	var view projection.GroupView
	err := cache.Aside(ctx, cache.GroupKey(id), &view, cache.GroupTTL, func() error {
		group, err := s.groupService.GetGroup(ctx, id)
		if err != nil {
			return err
		}
		views, err := s.projector.ProjectGroups(ctx, []*models.Group{group})
		if err != nil {
			return err
		}
		view = views[0]
		return nil
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(view)
}

// CreateGroup handles POST /api/groups
//
//	@Summary	Create a group; the creator becomes admin and first member
//	@Tags		groups
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	models.Group
//	@Router		/api/groups [post]
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var req service.CreateGroupInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.AdminID = actorID(c)

	group, err := s.groupService.CreateGroup(c.Context(), req)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// JoinGroup handles POST /api/groups/:id/join
//
//	@Summary	Join a group
//	@Tags		groups
//	@Security	BearerAuth
//	@Success	204
//	@Failure	409	{object}	models.ErrorResponse	"already a member"
//	@Router		/api/groups/{id}/join [post]
func (s *Server) JoinGroup(c *fiber.Ctx) error {
	if err := s.ledgerService.JoinGroup(c.Context(), actorID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LeaveGroup handles DELETE /api/groups/:id/join
func (s *Server) LeaveGroup(c *fiber.Ctx) error {
	if err := s.ledgerService.LeaveGroup(c.Context(), actorID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
