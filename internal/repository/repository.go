package repository

import (
	"errors"

	"campusconnect/internal/models"
	"campusconnect/internal/store"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// translateStoreError maps store sentinels onto application errors.
// ErrConditionFailed passes through untouched so each operation can attach
// its own precondition message.
func translateStoreError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, store.ErrUnavailable):
		return models.NewStoreUnavailableError(err)
	case errors.Is(err, store.ErrConditionFailed):
		return err
	}
	return models.NewInternalError(err)
}
