// Package repository implements the data access layer over the entity store.
package repository

import (
	"context"
	"errors"
	"time"

	"campusconnect/internal/observability"
	"campusconnect/internal/store"
)

const (
	maxAttempts  = 3
	retryBackoff = 100 * time.Millisecond
)

var storeLog = observability.NewStoreLogger("store")

// withRetry runs fn up to maxAttempts times, retrying only transient store
// failures. Conditional failures and missing documents are never retried;
// retrying a precondition would just re-reject it.
func withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, store.ErrUnavailable) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		storeLog.LogRetry(ctx, operation, attempt, err)
		observability.StoreRetries.WithLabelValues(operation).Inc()
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	storeLog.LogError(ctx, err, operation)
	return err
}
