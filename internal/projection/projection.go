// Package projection turns raw entities into display-ready views with the
// owner reference resolved to a user profile. Resolution goes through the
// user directory as a single batched lookup per page, and entities whose
// owner record is gone are tagged rather than dropped.
package projection

import (
	"context"

	"campusconnect/internal/directory"
	"campusconnect/internal/models"
)

// Projector resolves owner references for entity views.
type Projector struct {
	dir *directory.Directory
}

// New returns a Projector backed by the given directory.
func New(dir *directory.Directory) *Projector {
	return &Projector{dir: dir}
}

// PostView is a post with its author resolved.
type PostView struct {
	models.Post
	Author         *models.Profile `json:"author,omitempty"`
	AuthorResolved bool            `json:"author_resolved"`
}

// GroupView is a group with its admin resolved.
type GroupView struct {
	models.Group
	Admin         *models.Profile `json:"admin,omitempty"`
	AdminResolved bool            `json:"admin_resolved"`
}

// EventView is an event with its organizer resolved.
type EventView struct {
	models.Event
	Organizer         *models.Profile `json:"organizer,omitempty"`
	OrganizerResolved bool            `json:"organizer_resolved"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	models.Comment
	Author         *models.Profile `json:"author,omitempty"`
	AuthorResolved bool            `json:"author_resolved"`
}

// ProjectPosts resolves every post's author in one batched lookup. Output
// order matches input order; posts with a missing author record are kept
// with AuthorResolved false.
func (p *Projector) ProjectPosts(ctx context.Context, posts []*models.Post) ([]PostView, error) {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.AuthorID)
	}
	users, err := p.dir.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		view := PostView{Post: *post}
		if user, ok := users[post.AuthorID]; ok {
			profile := user.Profile()
			view.Author = &profile
			view.AuthorResolved = true
		}
		views = append(views, view)
	}
	return views, nil
}

// ProjectGroups resolves every group's admin in one batched lookup.
func (p *Projector) ProjectGroups(ctx context.Context, groups []*models.Group) ([]GroupView, error) {
	ids := make([]string, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.AdminID)
	}
	users, err := p.dir.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]GroupView, 0, len(groups))
	for _, group := range groups {
		view := GroupView{Group: *group}
		if user, ok := users[group.AdminID]; ok {
			profile := user.Profile()
			view.Admin = &profile
			view.AdminResolved = true
		}
		views = append(views, view)
	}
	return views, nil
}

// ProjectEvents resolves every event's organizer in one batched lookup.
func (p *Projector) ProjectEvents(ctx context.Context, events []*models.Event) ([]EventView, error) {
	ids := make([]string, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.OrganizerID)
	}
	users, err := p.dir.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]EventView, 0, len(events))
	for _, event := range events {
		view := EventView{Event: *event}
		if user, ok := users[event.OrganizerID]; ok {
			profile := user.Profile()
			view.Organizer = &profile
			view.OrganizerResolved = true
		}
		views = append(views, view)
	}
	return views, nil
}

// ProjectComments resolves every comment's author in one batched lookup.
func (p *Projector) ProjectComments(ctx context.Context, comments []*models.Comment) ([]CommentView, error) {
	ids := make([]string, 0, len(comments))
	for _, comment := range comments {
		ids = append(ids, comment.AuthorID)
	}
	users, err := p.dir.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		view := CommentView{Comment: *comment}
		if user, ok := users[comment.AuthorID]; ok {
			profile := user.Profile()
			view.Author = &profile
			view.AuthorResolved = true
		}
		views = append(views, view)
	}
	return views, nil
}
