package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campusconnect/internal/cache"
	"campusconnect/internal/models"
	"campusconnect/internal/store"
)

const postsCollection = "posts"

// Set and counter fields on post documents.
const (
	likedByField  = "likedBy"
	likesField    = "likes"
	commentsField = "comments"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
	IncrementComments(ctx context.Context, postID string) error
	DecrementComments(ctx context.Context, postID string) error
}

type postRepository struct {
	store store.EntityStore
}

// NewPostRepository creates a new post repository
func NewPostRepository(s store.EntityStore) PostRepository {
	return &postRepository{store: s}
}

type postRecord struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = newID()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt
	post.Likes = 0
	post.Comments = 0
	post.LikedBy = []string{}

	data, err := json.Marshal(postRecord{
		Title:     post.Title,
		Content:   post.Content,
		Category:  post.Category,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	err = withRetry(ctx, "post_create", func() error {
		return r.store.Create(ctx, postsCollection, &store.Document{
			ID:        post.ID,
			Data:      data,
			Sets:      map[string][]string{likedByField: {}},
			Counters:  map[string]int64{likesField: 0, commentsField: 0},
			SortKey:   post.CreatedAt.UnixNano(),
			CreatedAt: post.CreatedAt,
		})
	})
	if err != nil {
		return translateStoreError(err, "Post", post.ID)
	}
	cache.InvalidateFeed(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var doc *store.Document
	err := withRetry(ctx, "post_get", func() error {
		var err error
		doc, err = r.store.Get(ctx, postsCollection, id)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "Post", id)
	}
	return decodePost(doc)
}

// List returns posts newest first.
func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var docs []*store.Document
	err := withRetry(ctx, "post_list", func() error {
		var err error
		docs, err = r.store.Query(ctx, postsCollection, store.QueryOptions{
			Descending: true,
			Limit:      limit,
			Offset:     offset,
		})
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "Post", "")
	}

	posts := make([]*models.Post, 0, len(docs))
	for _, doc := range docs {
		post, err := decodePost(doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// Like adds the user to the liked-by set and bumps the likes counter in one
// conditional write. A user already in the set fails the whole update, so
// the counter can never drift from the set cardinality.
func (r *postRepository) Like(ctx context.Context, userID, postID string) error {
	err := withRetry(ctx, "post_like", func() error {
		return r.store.AtomicUpdate(ctx, postsCollection, postID, store.Update{
			AddToSet:    &store.SetMutation{Field: likedByField, Member: userID},
			IncrementBy: map[string]int64{likesField: 1},
			Strict:      true,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return models.NewPreconditionError("Post already liked")
		}
		return translateStoreError(err, "Post", postID)
	}
	cache.InvalidateFeed(ctx)
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID string) error {
	err := withRetry(ctx, "post_unlike", func() error {
		return r.store.AtomicUpdate(ctx, postsCollection, postID, store.Update{
			RemoveFromSet: &store.SetMutation{Field: likedByField, Member: userID},
			IncrementBy:   map[string]int64{likesField: -1},
			Strict:        true,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return models.NewPreconditionError("Post not currently liked")
		}
		return translateStoreError(err, "Post", postID)
	}
	cache.InvalidateFeed(ctx)
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) IncrementComments(ctx context.Context, postID string) error {
	return r.adjustComments(ctx, postID, 1)
}

// DecrementComments undoes an increment whose comment write failed.
func (r *postRepository) DecrementComments(ctx context.Context, postID string) error {
	return r.adjustComments(ctx, postID, -1)
}

func (r *postRepository) adjustComments(ctx context.Context, postID string, delta int64) error {
	err := withRetry(ctx, "post_comment_count", func() error {
		return r.store.AtomicUpdate(ctx, postsCollection, postID, store.Update{
			IncrementBy: map[string]int64{commentsField: delta},
		})
	})
	if err != nil {
		return translateStoreError(err, "Post", postID)
	}
	cache.InvalidateFeed(ctx)
	cache.InvalidatePost(ctx, postID)
	return nil
}

func decodePost(doc *store.Document) (*models.Post, error) {
	var rec postRecord
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return nil, models.NewInternalError(err)
	}
	likedBy := doc.Sets[likedByField]
	if likedBy == nil {
		likedBy = []string{}
	}
	return &models.Post{
		ID:        doc.ID,
		Title:     rec.Title,
		Content:   rec.Content,
		Category:  rec.Category,
		AuthorID:  rec.AuthorID,
		Likes:     doc.Counters[likesField],
		Comments:  doc.Counters[commentsField],
		LikedBy:   likedBy,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}
