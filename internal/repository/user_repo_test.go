package repository

import (
	"context"
	"testing"

	"campusconnect/internal/models"
	"campusconnect/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGetByEmail(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())
	ctx := context.Background()

	user := &models.User{
		Name:     "Ada Lovelace",
		Email:    "Ada@Example.edu",
		Course:   "Mathematics",
		Password: "hashed",
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	// lookup is case-insensitive
	got, err := repo.GetByEmail(ctx, "ada@example.edu")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Ada Lovelace", got.Name)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{
		Name: "Ada", Email: "ada@example.edu", Password: "x",
	}))

	err := repo.Create(ctx, &models.User{
		Name: "Imposter", Email: "ADA@example.edu", Password: "y",
	})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestUserRepository_GetByEmailMissing(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())

	got, err := repo.GetByEmail(context.Background(), "nobody@example.edu")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepository_GetByIDMissing(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
