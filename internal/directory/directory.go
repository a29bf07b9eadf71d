// Package directory resolves user records for display. Lookups go through
// the redis cache before hitting the repository, and batch resolution only
// ever fetches the requested IDs, never the whole collection.
package directory

import (
	"context"

	"campusconnect/internal/cache"
	"campusconnect/internal/models"
	"campusconnect/internal/repository"
)

// Directory serves point and batched user lookups.
type Directory struct {
	users repository.UserRepository
}

// New returns a Directory over the given repository.
func New(users repository.UserRepository) *Directory {
	return &Directory{users: users}
}

// GetUser returns a single user, cache-aside.
func (d *Directory) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		u, err := d.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers resolves the given IDs and returns the users found, keyed by ID.
// IDs are deduplicated first. Unknown IDs are simply absent from the result;
// any other failure aborts the batch.
func (d *Directory) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	result := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := result[id]; ok {
			continue
		}
		user, err := d.GetUser(ctx, id)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				continue
			}
			return nil, err
		}
		result[id] = user
	}
	return result, nil
}
