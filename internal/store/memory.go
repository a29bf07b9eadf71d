package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-process EntityStore. It backs unit
// tests and the STORE_DRIVER=memory development mode.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]*Document)}
}

func (s *MemoryStore) Create(_ context.Context, collection string, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]*Document)
		s.collections[collection] = coll
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, exists := coll[doc.ID]; exists {
		return ErrAlreadyExists
	}

	coll[doc.ID] = doc.clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.clone(), nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, opts QueryOptions) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[collection]
	docs := make([]*Document, 0, len(coll))
	for _, doc := range coll {
		docs = append(docs, doc.clone())
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].SortKey != docs[j].SortKey {
			if opts.Descending {
				return docs[i].SortKey > docs[j].SortKey
			}
			return docs[i].SortKey < docs[j].SortKey
		}
		// deterministic order for equal sort keys
		return docs[i].ID < docs[j].ID
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(docs) {
			return nil, nil
		}
		docs = docs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(docs) {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

func (s *MemoryStore) AtomicUpdate(_ context.Context, collection, id string, up Update) error {
	if err := up.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}

	// Evaluate both guards before mutating anything so the update is
	// all-or-nothing.
	if up.AddToSet != nil && up.Strict {
		if memberOf(doc.Sets[up.AddToSet.Field], up.AddToSet.Member) {
			return ErrConditionFailed
		}
	}
	if up.RemoveFromSet != nil && up.Strict {
		if !memberOf(doc.Sets[up.RemoveFromSet.Field], up.RemoveFromSet.Member) {
			return ErrConditionFailed
		}
	}

	if up.AddToSet != nil && !memberOf(doc.Sets[up.AddToSet.Field], up.AddToSet.Member) {
		if doc.Sets == nil {
			doc.Sets = make(map[string][]string)
		}
		doc.Sets[up.AddToSet.Field] = append(doc.Sets[up.AddToSet.Field], up.AddToSet.Member)
	}
	if up.RemoveFromSet != nil {
		if doc.Sets == nil {
			doc.Sets = make(map[string][]string)
		}
		doc.Sets[up.RemoveFromSet.Field] = without(doc.Sets[up.RemoveFromSet.Field], up.RemoveFromSet.Member)
	}
	for field, delta := range up.IncrementBy {
		if doc.Counters == nil {
			doc.Counters = make(map[string]int64)
		}
		doc.Counters[field] += delta
	}
	return nil
}

func memberOf(set []string, member string) bool {
	for _, m := range set {
		if m == member {
			return true
		}
	}
	return false
}

func without(set []string, member string) []string {
	out := set[:0]
	for _, m := range set {
		if m != member {
			out = append(out, m)
		}
	}
	return out
}
