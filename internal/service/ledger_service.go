// Package service holds the application's business rules.
package service

import (
	"context"

	"campusconnect/internal/models"
	"campusconnect/internal/observability"
	"campusconnect/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// LedgerService owns every membership and reaction transition: group
// join/leave, event attend/unattend, post like/unlike. All state checks
// happen inside the store's conditional write; the service adds the actor
// and ownership rules on top.
type LedgerService struct {
	groups repository.GroupRepository
	events repository.EventRepository
	posts  repository.PostRepository
}

// NewLedgerService returns a new LedgerService.
func NewLedgerService(
	groups repository.GroupRepository,
	events repository.EventRepository,
	posts repository.PostRepository,
) *LedgerService {
	return &LedgerService{groups: groups, events: events, posts: posts}
}

// requireActor rejects mutations with no authenticated actor.
func requireActor(actorID string) error {
	if actorID == "" {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return nil
}

func recordRejection(operation string, err error) {
	if models.HasCode(err, models.CodePreconditionViolation) {
		observability.LedgerRejections.WithLabelValues(operation, "precondition").Inc()
	}
}

func (s *LedgerService) JoinGroup(ctx context.Context, actorID, groupID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	span, ctx := observability.NewSpan(ctx, "ledger.join_group")
	defer span.End()
	span.AddAttributes(
		attribute.String("group.id", groupID),
		attribute.String("actor.id", actorID),
	)

	if err := s.groups.Join(ctx, actorID, groupID); err != nil {
		span.SetError(err)
		recordRejection("join_group", err)
		return err
	}
	return nil
}

// LeaveGroup refuses to remove the group's admin. The admin is seeded into
// the member set at creation and stays there for the group's lifetime.
func (s *LedgerService) LeaveGroup(ctx context.Context, actorID, groupID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	span, ctx := observability.NewSpan(ctx, "ledger.leave_group")
	defer span.End()
	span.AddAttributes(
		attribute.String("group.id", groupID),
		attribute.String("actor.id", actorID),
	)

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		span.SetError(err)
		return err
	}
	if group.AdminID == actorID {
		err := models.NewPreconditionError("Group admin cannot leave their own group")
		span.SetError(err)
		observability.LedgerRejections.WithLabelValues("leave_group", "owner").Inc()
		return err
	}

	if err := s.groups.Leave(ctx, actorID, groupID); err != nil {
		span.SetError(err)
		recordRejection("leave_group", err)
		return err
	}
	return nil
}

func (s *LedgerService) AttendEvent(ctx context.Context, actorID, eventID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	span, ctx := observability.NewSpan(ctx, "ledger.attend_event")
	defer span.End()
	span.AddAttributes(
		attribute.String("event.id", eventID),
		attribute.String("actor.id", actorID),
	)

	if err := s.events.Attend(ctx, actorID, eventID); err != nil {
		span.SetError(err)
		recordRejection("attend_event", err)
		return err
	}
	return nil
}

// UnattendEvent refuses to remove the event's organizer.
func (s *LedgerService) UnattendEvent(ctx context.Context, actorID, eventID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	span, ctx := observability.NewSpan(ctx, "ledger.unattend_event")
	defer span.End()
	span.AddAttributes(
		attribute.String("event.id", eventID),
		attribute.String("actor.id", actorID),
	)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		span.SetError(err)
		return err
	}
	if event.OrganizerID == actorID {
		err := models.NewPreconditionError("Event organizer cannot withdraw from their own event")
		span.SetError(err)
		observability.LedgerRejections.WithLabelValues("unattend_event", "owner").Inc()
		return err
	}

	if err := s.events.Unattend(ctx, actorID, eventID); err != nil {
		span.SetError(err)
		recordRejection("unattend_event", err)
		return err
	}
	return nil
}

// LikePost records a like. Authors may like their own posts; the only
// precondition is that the actor does not already like it.
func (s *LedgerService) LikePost(ctx context.Context, actorID, postID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	span, ctx := observability.NewSpan(ctx, "ledger.like_post")
	defer span.End()
	span.AddAttributes(
		attribute.String("post.id", postID),
		attribute.String("actor.id", actorID),
	)

	if err := s.posts.Like(ctx, actorID, postID); err != nil {
		span.SetError(err)
		recordRejection("like_post", err)
		return err
	}
	return nil
}

func (s *LedgerService) UnlikePost(ctx context.Context, actorID, postID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	span, ctx := observability.NewSpan(ctx, "ledger.unlike_post")
	defer span.End()
	span.AddAttributes(
		attribute.String("post.id", postID),
		attribute.String("actor.id", actorID),
	)

	if err := s.posts.Unlike(ctx, actorID, postID); err != nil {
		span.SetError(err)
		recordRejection("unlike_post", err)
		return err
	}
	return nil
}
