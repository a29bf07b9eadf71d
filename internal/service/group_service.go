package service

import (
	"context"
	"strings"

	"campusconnect/internal/models"
	"campusconnect/internal/repository"
)

// GroupService handles group creation and reads.
type GroupService struct {
	groups repository.GroupRepository
}

// NewGroupService returns a new GroupService.
func NewGroupService(groups repository.GroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

// CreateGroupInput is the payload for creating a group.
type CreateGroupInput struct {
	AdminID     string
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	if err := requireActor(in.AdminID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Group name is required")
	}
	if len(in.Name) > 100 {
		return nil, models.NewValidationError("Group name too long (max 100 characters)")
	}
	if !models.ValidGroupCategory(in.Category) {
		return nil, models.NewValidationError("Invalid group category")
	}

	group := &models.Group{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		AdminID:     in.AdminID,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return s.groups.GetByID(ctx, id)
}

// ListGroups returns groups newest first.
func (s *GroupService) ListGroups(ctx context.Context, limit, offset int) ([]*models.Group, error) {
	return s.groups.List(ctx, clampLimit(limit), clampOffset(offset))
}
