// Package store defines the Entity Store abstraction the application
// persists its documents in, plus drivers for Redis, SQL (GORM), and an
// in-memory implementation used in tests.
//
// The contract is deliberately small: opaque JSON scalar data, named
// set-valued fields, named counter fields, and a single caller-chosen
// ordering key per document. The one non-trivial operation is
// AtomicUpdate, which applies a set mutation and counter increments as one
// conditional write. That conditional write is what keeps the likes
// counter equal to the liked-by set cardinality under concurrent calls.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the document ID does not resolve in the collection.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists indicates a Create collided with an existing document ID.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrConditionFailed indicates a strict set mutation was a no-op: the
	// member was already present on add, or absent on remove. Nothing was
	// written.
	ErrConditionFailed = errors.New("update condition failed")
	// ErrUnavailable indicates a transient store or transport failure.
	ErrUnavailable = errors.New("store unavailable")
)

// Document is a persisted entity. Set and counter fields must be declared
// at Create time; AtomicUpdate only mutates declared fields.
type Document struct {
	ID        string
	Data      json.RawMessage
	Sets      map[string][]string
	Counters  map[string]int64
	SortKey   int64
	CreatedAt time.Time
}

// SetMutation names a set field and the member to add or remove.
type SetMutation struct {
	Field  string
	Member string
}

// Update describes one atomic mutation. At most one add and one remove may
// be combined with any number of counter increments; all of it commits or
// none of it does.
//
// With Strict set, a set mutation whose member is already in (add) or not
// in (remove) the target set fails the whole update with
// ErrConditionFailed. Without Strict, set mutations are idempotent and
// increments always apply.
type Update struct {
	AddToSet      *SetMutation
	RemoveFromSet *SetMutation
	IncrementBy   map[string]int64
	Strict        bool
}

// QueryOptions bound and order a collection query. Results are ordered by
// SortKey; Limit 0 means no limit.
type QueryOptions struct {
	Descending bool
	Limit      int
	Offset     int
}

// EntityStore is the persistence contract for all entity collections.
type EntityStore interface {
	// Create persists a new document. An empty doc.ID is assigned a fresh
	// UUID. Creating an ID that already exists fails with ErrAlreadyExists.
	Create(ctx context.Context, collection string, doc *Document) error
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Query returns a page of documents ordered by SortKey.
	Query(ctx context.Context, collection string, opts QueryOptions) ([]*Document, error)
	// AtomicUpdate applies the update as a single conditional write.
	AtomicUpdate(ctx context.Context, collection, id string, up Update) error
}

// unavailable wraps a driver error as ErrUnavailable, preserving the cause.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// validate rejects updates the drivers cannot apply atomically.
func (up Update) validate() error {
	if up.AddToSet == nil && up.RemoveFromSet == nil && len(up.IncrementBy) == 0 {
		return errors.New("empty update")
	}
	if up.AddToSet != nil && (up.AddToSet.Field == "" || up.AddToSet.Member == "") {
		return errors.New("add mutation requires field and member")
	}
	if up.RemoveFromSet != nil && (up.RemoveFromSet.Field == "" || up.RemoveFromSet.Member == "") {
		return errors.New("remove mutation requires field and member")
	}
	return nil
}

// clone returns a deep copy so callers can never alias store-owned state.
func (d *Document) clone() *Document {
	out := &Document{
		ID:        d.ID,
		Data:      append(json.RawMessage(nil), d.Data...),
		SortKey:   d.SortKey,
		CreatedAt: d.CreatedAt,
	}
	if d.Sets != nil {
		out.Sets = make(map[string][]string, len(d.Sets))
		for k, v := range d.Sets {
			out.Sets[k] = append(make([]string, 0, len(v)), v...)
		}
	}
	if d.Counters != nil {
		out.Counters = make(map[string]int64, len(d.Counters))
		for k, v := range d.Counters {
			out.Counters[k] = v
		}
	}
	return out
}
