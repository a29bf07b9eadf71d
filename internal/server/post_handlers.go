package server

import (
	"context"

	"campusconnect/internal/cache"
	"campusconnect/internal/models"
	"campusconnect/internal/projection"
	"campusconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
//
//	@Summary	List posts, newest first, with authors resolved
//	@Tags		posts
//	@Produce	json
//	@Success	200	{array}	projection.PostView
//	@Router		/api/posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)

	fetch := func() ([]projection.PostView, error) {
		posts, err := s.postRepo.List(ctx, page.Limit, page.Offset)
		if err != nil {
			return nil, err
		}
		return s.projector.ProjectPosts(ctx, posts)
	}

	// Only the default first page is cached; it is what the feed UI polls.
	if page.Limit == 20 && page.Offset == 0 {
		var views []projection.PostView
		err := cache.Aside(ctx, cache.FeedKey, &views, cache.FeedTTL, func() error {
			v, err := fetch()
			if err != nil {
				return err
			}
			views = v
			return nil
		})
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		return c.JSON(views)
	}

	views, err := fetch()
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(views)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	id := c.Params("id")

	var view projection.PostView
	err := cache.Aside(ctx, cache.PostKey(id), &view, cache.PostTTL, func() error {
		post, err := s.postService.GetPost(ctx, id)
		if err != nil {
			return err
		}
		views, err := s.projector.ProjectPosts(ctx, []*models.Post{post})
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

// CreatePost handles POST /api/posts
//
//	@Summary	Create a post
//	@Tags		posts
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	models.Post
//	@Router		/api/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.AuthorID = actorID(c)

	post, err := s.postService.CreatePost(c.Context(), req)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	s.notifyFeedChanged(context.Background(), "post_created")
	return c.Status(fiber.StatusCreated).JSON(post)
}

// LikePost handles POST /api/posts/:id/like
//
//	@Summary	Like a post
//	@Tags		posts
//	@Security	BearerAuth
//	@Success	204
//	@Failure	409	{object}	models.ErrorResponse	"already liked"
//	@Router		/api/posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	if err := s.ledgerService.LikePost(c.Context(), actorID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	s.notifyFeedChanged(context.Background(), "post_liked")
	return c.SendStatus(fiber.StatusNoContent)
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	if err := s.ledgerService.UnlikePost(c.Context(), actorID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	s.notifyFeedChanged(context.Background(), "post_unliked")
	return c.SendStatus(fiber.StatusNoContent)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	comments, err := s.postService.ListComments(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	views, err := s.projector.ProjectComments(c.Context(), comments)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(views)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req service.AddCommentInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.AuthorID = actorID(c)
	req.PostID = c.Params("id")

	comment, err := s.postService.AddComment(c.Context(), req)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	s.notifyFeedChanged(context.Background(), "comment_created")
	return c.Status(fiber.StatusCreated).JSON(comment)
}
