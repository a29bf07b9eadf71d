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

const (
	groupsCollection = "groups"
	membersField     = "members"
)

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	List(ctx context.Context, limit, offset int) ([]*models.Group, error)
	Join(ctx context.Context, userID, groupID string) error
	Leave(ctx context.Context, userID, groupID string) error
}

type groupRepository struct {
	store store.EntityStore
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(s store.EntityStore) GroupRepository {
	return &groupRepository{store: s}
}

type groupRecord struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	AdminID     string    `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Create persists the group with its admin already in the member set.
func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = newID()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	group.Members = []string{group.AdminID}

	data, err := json.Marshal(groupRecord{
		Name:        group.Name,
		Description: group.Description,
		Category:    group.Category,
		AdminID:     group.AdminID,
		CreatedAt:   group.CreatedAt,
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	err = withRetry(ctx, "group_create", func() error {
		return r.store.Create(ctx, groupsCollection, &store.Document{
			ID:        group.ID,
			Data:      data,
			Sets:      map[string][]string{membersField: {group.AdminID}},
			SortKey:   group.CreatedAt.UnixNano(),
			CreatedAt: group.CreatedAt,
		})
	})
	return translateStoreError(err, "Group", group.ID)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var doc *store.Document
	err := withRetry(ctx, "group_get", func() error {
		var err error
		doc, err = r.store.Get(ctx, groupsCollection, id)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "Group", id)
	}
	return decodeGroup(doc)
}

// List returns groups newest first.
func (r *groupRepository) List(ctx context.Context, limit, offset int) ([]*models.Group, error) {
	var docs []*store.Document
	err := withRetry(ctx, "group_list", func() error {
		var err error
		docs, err = r.store.Query(ctx, groupsCollection, store.QueryOptions{
			Descending: true,
			Limit:      limit,
			Offset:     offset,
		})
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "Group", "")
	}

	groups := make([]*models.Group, 0, len(docs))
	for _, doc := range docs {
		group, err := decodeGroup(doc)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (r *groupRepository) Join(ctx context.Context, userID, groupID string) error {
	err := withRetry(ctx, "group_join", func() error {
		return r.store.AtomicUpdate(ctx, groupsCollection, groupID, store.Update{
			AddToSet: &store.SetMutation{Field: membersField, Member: userID},
			Strict:   true,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return models.NewPreconditionError("Already a member of this group")
		}
		return translateStoreError(err, "Group", groupID)
	}
	cache.InvalidateGroup(ctx, groupID)
	return nil
}

func (r *groupRepository) Leave(ctx context.Context, userID, groupID string) error {
	err := withRetry(ctx, "group_leave", func() error {
		return r.store.AtomicUpdate(ctx, groupsCollection, groupID, store.Update{
			RemoveFromSet: &store.SetMutation{Field: membersField, Member: userID},
			Strict:        true,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return models.NewPreconditionError("Not a member of this group")
		}
		return translateStoreError(err, "Group", groupID)
	}
	cache.InvalidateGroup(ctx, groupID)
	return nil
}

func decodeGroup(doc *store.Document) (*models.Group, error) {
	var rec groupRecord
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return nil, models.NewInternalError(err)
	}
	members := doc.Sets[membersField]
	if members == nil {
		members = []string{}
	}
	return &models.Group{
		ID:          doc.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Category:    rec.Category,
		AdminID:     rec.AdminID,
		Members:     members,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
