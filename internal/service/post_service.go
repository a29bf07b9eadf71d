package service

import (
	"context"
	"strings"

	"campusconnect/internal/models"
	"campusconnect/internal/repository"
)

const (
	maxTitleLen   = 300
	maxContentLen = 10000
	maxCommentLen = 2000
)

// PostService handles post and comment creation and reads.
type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
}

// NewPostService returns a new PostService.
func NewPostService(posts repository.PostRepository, comments repository.CommentRepository) *PostService {
	return &PostService{posts: posts, comments: comments}
}

// CreatePostInput is the payload for creating a post.
type CreatePostInput struct {
	AuthorID string
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// AddCommentInput is the payload for commenting on a post.
type AddCommentInput struct {
	AuthorID string
	PostID   string
	Content  string `json:"content"`
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := requireActor(in.AuthorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 10000 characters)")
	}
	if !models.ValidPostCategory(in.Category) {
		return nil, models.NewValidationError("Invalid post category")
	}

	post := &models.Post{
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		Category: in.Category,
		AuthorID: in.AuthorID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// ListPosts returns posts newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.posts.List(ctx, clampLimit(limit), clampOffset(offset))
}

func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if err := requireActor(in.AuthorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		Content:  in.Content,
		AuthorID: in.AuthorID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a post's comments oldest first. The post must exist.
func (s *PostService) ListComments(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID, clampLimit(limit), clampOffset(offset))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
