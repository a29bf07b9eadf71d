package server

import (
	"campusconnect/internal/cache"
	"campusconnect/internal/models"
	"campusconnect/internal/projection"
	"campusconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetEvents handles GET /api/events
func (s *Server) GetEvents(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	events, err := s.eventService.ListEvents(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	views, err := s.projector.ProjectEvents(c.Context(), events)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(views)
}

// GetEvent handles GET /api/events/:id
func (s *Server) GetEvent(c *fiber.Ctx) error {
	ctx := c.Context()
	id := c.Params("id")

	var view projection.EventView
	err := cache.Aside(ctx, cache.EventKey(id), &view, cache.EventTTL, func() error {
		event, err := s.eventService.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		views, err := s.projector.ProjectEvents(ctx, []*models.Event{event})
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

// CreateEvent handles POST /api/events
//
//	@Summary	Create an event; the creator becomes organizer and first attendee
//	@Tags		events
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	models.Event
//	@Router		/api/events [post]
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	var req service.CreateEventInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.OrganizerID = actorID(c)

	event, err := s.eventService.CreateEvent(c.Context(), req)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// AttendEvent handles POST /api/events/:id/attend
//
//	@Summary	Attend an event
//	@Tags		events
//	@Security	BearerAuth
//	@Success	204
//	@Failure	409	{object}	models.ErrorResponse	"already attending"
//	@Router		/api/events/{id}/attend [post]
func (s *Server) AttendEvent(c *fiber.Ctx) error {
	if err := s.ledgerService.AttendEvent(c.Context(), actorID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnattendEvent handles DELETE /api/events/:id/attend
func (s *Server) UnattendEvent(c *fiber.Ctx) error {
	if err := s.ledgerService.UnattendEvent(c.Context(), actorID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
