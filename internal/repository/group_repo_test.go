package repository

import (
	"context"
	"testing"

	"campusconnect/internal/models"
	"campusconnect/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_CreateSeedsAdmin(t *testing.T) {
	repo := NewGroupRepository(store.NewMemoryStore())
	ctx := context.Background()

	group := &models.Group{
		Name:     "Robotics Club",
		Category: "Technology",
		AdminID:  "admin-1",
	}
	require.NoError(t, repo.Create(ctx, group))

	got, err := repo.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.AdminID)
	assert.True(t, got.HasMember("admin-1"))
	assert.Len(t, got.Members, 1)
}

func TestGroupRepository_JoinLeave(t *testing.T) {
	repo := NewGroupRepository(store.NewMemoryStore())
	ctx := context.Background()

	group := &models.Group{Name: "Chess", Category: "Social", AdminID: "admin-1"}
	require.NoError(t, repo.Create(ctx, group))

	require.NoError(t, repo.Join(ctx, "student-1", group.ID))

	err := repo.Join(ctx, "student-1", group.ID)
	assert.True(t, models.HasCode(err, models.CodePreconditionViolation))

	require.NoError(t, repo.Leave(ctx, "student-1", group.ID))

	err = repo.Leave(ctx, "student-1", group.ID)
	assert.True(t, models.HasCode(err, models.CodePreconditionViolation))
}

func TestGroupRepository_JoinMissingGroup(t *testing.T) {
	repo := NewGroupRepository(store.NewMemoryStore())

	err := repo.Join(context.Background(), "student-1", "nope")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
