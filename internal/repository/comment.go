package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/observability"
	"campusconnect/internal/store"
)

// commentCollection names the per-post comment subcollection.
func commentCollection(postID string) string {
	return "comments:" + postID
}

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error)
}

type commentRepository struct {
	store store.EntityStore
	posts PostRepository
}

// NewCommentRepository creates a new comment repository. It needs the post
// repository to keep the per-post comment counter current.
func NewCommentRepository(s store.EntityStore, posts PostRepository) CommentRepository {
	return &commentRepository{store: s, posts: posts}
}

type commentRecord struct {
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Create writes the comment and bumps the post's comment counter. The post
// existence check rides on the counter increment: a missing post fails the
// increment with NotFound before the comment is visible anywhere. If the
// comment write itself fails, the increment is rolled back so the counter
// never drifts from the comments actually persisted.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.posts.IncrementComments(ctx, comment.PostID); err != nil {
		return err
	}

	if comment.ID == "" {
		comment.ID = newID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(commentRecord{
		Content:   comment.Content,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	err = withRetry(ctx, "comment_create", func() error {
		return r.store.Create(ctx, commentCollection(comment.PostID), &store.Document{
			ID:        comment.ID,
			Data:      data,
			SortKey:   comment.CreatedAt.UnixNano(),
			CreatedAt: comment.CreatedAt,
		})
	})
	if err != nil {
		if derr := r.posts.DecrementComments(ctx, comment.PostID); derr != nil {
			observability.GlobalLogger.ErrorContext(ctx, "comment counter rollback failed",
				slog.String("post_id", comment.PostID),
				slog.String("error", derr.Error()),
			)
		}
		return translateStoreError(err, "Comment", comment.ID)
	}
	return nil
}

// ListByPost returns a post's comments oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	var docs []*store.Document
	err := withRetry(ctx, "comment_list", func() error {
		var err error
		docs, err = r.store.Query(ctx, commentCollection(postID), store.QueryOptions{
			Limit:  limit,
			Offset: offset,
		})
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "Comment", postID)
	}

	comments := make([]*models.Comment, 0, len(docs))
	for _, doc := range docs {
		var rec commentRecord
		if err := json.Unmarshal(doc.Data, &rec); err != nil {
			return nil, models.NewInternalError(err)
		}
		comments = append(comments, &models.Comment{
			ID:        doc.ID,
			PostID:    postID,
			Content:   rec.Content,
			AuthorID:  rec.AuthorID,
			CreatedAt: rec.CreatedAt,
		})
	}
	return comments, nil
}
