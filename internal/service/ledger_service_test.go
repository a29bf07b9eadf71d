package service

import (
	"context"
	"testing"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repository"
	"campusconnect/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	svc    *LedgerService
	groups repository.GroupRepository
	events repository.EventRepository
	posts  repository.PostRepository
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	s := store.NewMemoryStore()
	groups := repository.NewGroupRepository(s)
	events := repository.NewEventRepository(s)
	posts := repository.NewPostRepository(s)
	return &ledgerFixture{
		svc:    NewLedgerService(groups, events, posts),
		groups: groups,
		events: events,
		posts:  posts,
	}
}

func TestLedgerService_JoinGroup(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	group := &models.Group{Name: "Chess", Category: "Social", AdminID: "admin-1"}
	require.NoError(t, f.groups.Create(ctx, group))

	require.NoError(t, f.svc.JoinGroup(ctx, "student-1", group.ID))

	got, err := f.groups.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.True(t, got.HasMember("student-1"))
}

func TestLedgerService_JoinGroupTwice(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	group := &models.Group{Name: "Chess", Category: "Social", AdminID: "admin-1"}
	require.NoError(t, f.groups.Create(ctx, group))

	require.NoError(t, f.svc.JoinGroup(ctx, "student-1", group.ID))
	err := f.svc.JoinGroup(ctx, "student-1", group.ID)
	assert.True(t, models.HasCode(err, models.CodePreconditionViolation))
}

func TestLedgerService_AdminCannotLeave(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	group := &models.Group{Name: "Chess", Category: "Social", AdminID: "admin-1"}
	require.NoError(t, f.groups.Create(ctx, group))

	err := f.svc.LeaveGroup(ctx, "admin-1", group.ID)
	assert.True(t, models.HasCode(err, models.CodePreconditionViolation))

	// admin is still a member afterwards
	got, err2 := f.groups.GetByID(ctx, group.ID)
	require.NoError(t, err2)
	assert.True(t, got.HasMember("admin-1"))
}

func TestLedgerService_LeaveWithoutJoining(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	group := &models.Group{Name: "Chess", Category: "Social", AdminID: "admin-1"}
	require.NoError(t, f.groups.Create(ctx, group))

	err := f.svc.LeaveGroup(ctx, "student-1", group.ID)
	assert.True(t, models.HasCode(err, models.CodePreconditionViolation))
}

func TestLedgerService_UnauthenticatedActor(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	err := f.svc.JoinGroup(ctx, "", "some-group")
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated))

	err = f.svc.LikePost(ctx, "", "some-post")
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated))
}

func TestLedgerService_MissingTargets(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	assert.True(t, models.HasCode(f.svc.JoinGroup(ctx, "u1", "nope"), models.CodeNotFound))
	assert.True(t, models.HasCode(f.svc.LeaveGroup(ctx, "u1", "nope"), models.CodeNotFound))
	assert.True(t, models.HasCode(f.svc.AttendEvent(ctx, "u1", "nope"), models.CodeNotFound))
	assert.True(t, models.HasCode(f.svc.LikePost(ctx, "u1", "nope"), models.CodeNotFound))
}

func TestLedgerService_OrganizerCannotUnattend(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	event := &models.Event{Title: "Fair", Date: time.Now(), OrganizerID: "org-1"}
	require.NoError(t, f.events.Create(ctx, event))

	err := f.svc.UnattendEvent(ctx, "org-1", event.ID)
	assert.True(t, models.HasCode(err, models.CodePreconditionViolation))
}

func TestLedgerService_AttendUnattendRoundTrip(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	event := &models.Event{Title: "Fair", Date: time.Now(), OrganizerID: "org-1"}
	require.NoError(t, f.events.Create(ctx, event))

	require.NoError(t, f.svc.AttendEvent(ctx, "student-1", event.ID))
	require.NoError(t, f.svc.UnattendEvent(ctx, "student-1", event.ID))

	got, err := f.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, got.HasAttendee("student-1"))
	assert.True(t, got.HasAttendee("org-1"))
}

func TestLedgerService_AuthorMayLikeOwnPost(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	post := &models.Post{Title: "hi", Content: "x", Category: "Social", AuthorID: "author-1"}
	require.NoError(t, f.posts.Create(ctx, post))

	require.NoError(t, f.svc.LikePost(ctx, "author-1", post.ID))

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)
}

func TestLedgerService_LikeUnlikeKeepsCounterInStep(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	post := &models.Post{Title: "hi", Content: "x", Category: "Social", AuthorID: "author-1"}
	require.NoError(t, f.posts.Create(ctx, post))

	require.NoError(t, f.svc.LikePost(ctx, "u1", post.ID))
	require.NoError(t, f.svc.LikePost(ctx, "u2", post.ID))
	require.NoError(t, f.svc.UnlikePost(ctx, "u1", post.ID))

	assert.True(t, models.HasCode(
		f.svc.UnlikePost(ctx, "u1", post.ID), models.CodePreconditionViolation))

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)
	assert.Equal(t, []string{"u2"}, got.LikedBy)
}
