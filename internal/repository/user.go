package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/store"
)

const (
	usersCollection      = "users"
	userEmailsCollection = "user_emails"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

type userRepository struct {
	store store.EntityStore
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(s store.EntityStore) UserRepository {
	return &userRepository{store: s}
}

// userRecord is the scalar payload persisted in the document body.
type userRecord struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Course    string    `json:"course"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

// emailClaim reserves an email address. The document ID is the lowercased
// address, so store-level create uniqueness doubles as the email uniqueness
// guard.
type emailClaim struct {
	UserID string `json:"user_id"`
}

func emailClaimID(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	claimData, err := json.Marshal(emailClaim{UserID: user.ID})
	if err != nil {
		return models.NewInternalError(err)
	}

	// Claim the email before writing the user document. A duplicate claim
	// means the address is taken.
	err = withRetry(ctx, "user_email_claim", func() error {
		return r.store.Create(ctx, userEmailsCollection, &store.Document{
			ID:   emailClaimID(user.Email),
			Data: claimData,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return models.NewValidationError("Email already registered")
		}
		return translateStoreError(err, "User", user.Email)
	}

	data, err := json.Marshal(userRecord{
		Name:      user.Name,
		Email:     user.Email,
		Course:    user.Course,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	return withRetry(ctx, "user_create", func() error {
		err := r.store.Create(ctx, usersCollection, &store.Document{
			ID:        user.ID,
			Data:      data,
			SortKey:   user.CreatedAt.UnixNano(),
			CreatedAt: user.CreatedAt,
		})
		return translateStoreError(err, "User", user.ID)
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var doc *store.Document
	err := withRetry(ctx, "user_get", func() error {
		var err error
		doc, err = r.store.Get(ctx, usersCollection, id)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "User", id)
	}
	return decodeUser(doc)
}

// GetByEmail resolves the email claim, then loads the user document. Returns
// (nil, nil) when no account uses the address, matching how login flows probe
// for existence.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var claimDoc *store.Document
	err := withRetry(ctx, "user_email_get", func() error {
		var err error
		claimDoc, err = r.store.Get(ctx, userEmailsCollection, emailClaimID(email))
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, translateStoreError(err, "User", email)
	}

	var claim emailClaim
	if err := json.Unmarshal(claimDoc.Data, &claim); err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.GetByID(ctx, claim.UserID)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var docs []*store.Document
	err := withRetry(ctx, "user_list", func() error {
		var err error
		docs, err = r.store.Query(ctx, usersCollection, store.QueryOptions{
			Descending: true,
			Limit:      limit,
			Offset:     offset,
		})
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "User", "")
	}

	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func decodeUser(doc *store.Document) (*models.User, error) {
	var rec userRecord
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.User{
		ID:        doc.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Course:    rec.Course,
		Password:  rec.Password,
		CreatedAt: rec.CreatedAt,
	}, nil
}
