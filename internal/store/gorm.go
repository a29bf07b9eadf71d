package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore persists documents in three relational tables: one row per
// document, one row per set member, one row per counter. The membership
// guard rides on INSERT ... ON CONFLICT DO NOTHING / conditional DELETE
// row counts inside a transaction, which both PostgreSQL and SQLite apply
// atomically.
type GormStore struct {
	db *gorm.DB
}

type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	DocID      string `gorm:"primaryKey;size:64;column:doc_id"`
	Data       []byte
	SetFields  []byte
	SortKey    int64 `gorm:"index:idx_documents_sort"`
	CreatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

type documentMember struct {
	Collection string `gorm:"primaryKey;size:64"`
	DocID      string `gorm:"primaryKey;size:64;column:doc_id"`
	Field      string `gorm:"primaryKey;size:32"`
	Member     string `gorm:"primaryKey;size:64"`
	CreatedAt  time.Time
}

func (documentMember) TableName() string { return "document_members" }

type documentCounter struct {
	Collection string `gorm:"primaryKey;size:64"`
	DocID      string `gorm:"primaryKey;size:64;column:doc_id"`
	Field      string `gorm:"primaryKey;size:32"`
	Value      int64
}

func (documentCounter) TableName() string { return "document_counters" }

// NewGormStore returns a GormStore over an already-connected DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the store tables.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&documentRow{}, &documentMember{}, &documentCounter{})
}

func (s *GormStore) Create(ctx context.Context, collection string, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	setFields := make([]string, 0, len(doc.Sets))
	for field := range doc.Sets {
		setFields = append(setFields, field)
	}
	sort.Strings(setFields)
	setFieldsJSON, err := json.Marshal(setFields)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := documentRow{
			Collection: collection,
			DocID:      doc.ID,
			Data:       append([]byte(nil), doc.Data...),
			SetFields:  setFieldsJSON,
			SortKey:    doc.SortKey,
			CreatedAt:  doc.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for field, members := range doc.Sets {
			for _, member := range members {
				m := documentMember{
					Collection: collection,
					DocID:      doc.ID,
					Field:      field,
					Member:     member,
					CreatedAt:  doc.CreatedAt,
				}
				if err := tx.Create(&m).Error; err != nil {
					return err
				}
			}
		}
		for field, value := range doc.Counters {
			c := documentCounter{
				Collection: collection,
				DocID:      doc.ID,
				Field:      field,
				Value:      value,
			}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return unavailable(err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}

	docs, err := s.load(ctx, collection, []documentRow{row})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

func (s *GormStore) Query(ctx context.Context, collection string, opts QueryOptions) ([]*Document, error) {
	order := "sort_key ASC, doc_id ASC"
	if opts.Descending {
		order = "sort_key DESC, doc_id DESC"
	}

	q := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order(order).
		Offset(opts.Offset)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var rows []documentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, unavailable(err)
	}
	return s.load(ctx, collection, rows)
}

// load assembles documents from rows, batching the member and counter
// lookups into one query each instead of one per document.
func (s *GormStore) load(ctx context.Context, collection string, rows []documentRow) ([]*Document, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.DocID
	}

	var members []documentMember
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id IN ?", collection, ids).
		Find(&members).Error
	if err != nil {
		return nil, unavailable(err)
	}
	var counters []documentCounter
	err = s.db.WithContext(ctx).
		Where("collection = ? AND doc_id IN ?", collection, ids).
		Find(&counters).Error
	if err != nil {
		return nil, unavailable(err)
	}

	setsByDoc := make(map[string]map[string][]string)
	for _, m := range members {
		if setsByDoc[m.DocID] == nil {
			setsByDoc[m.DocID] = make(map[string][]string)
		}
		setsByDoc[m.DocID][m.Field] = append(setsByDoc[m.DocID][m.Field], m.Member)
	}
	countersByDoc := make(map[string]map[string]int64)
	for _, c := range counters {
		if countersByDoc[c.DocID] == nil {
			countersByDoc[c.DocID] = make(map[string]int64)
		}
		countersByDoc[c.DocID][c.Field] = c.Value
	}

	docs := make([]*Document, len(rows))
	for i, row := range rows {
		doc := &Document{
			ID:        row.DocID,
			Data:      json.RawMessage(row.Data),
			SortKey:   row.SortKey,
			CreatedAt: row.CreatedAt,
			Sets:      setsByDoc[row.DocID],
			Counters:  countersByDoc[row.DocID],
		}

		// declared-but-empty set fields still surface as empty sets
		var setFields []string
		if len(row.SetFields) > 0 {
			if err := json.Unmarshal(row.SetFields, &setFields); err != nil {
				return nil, err
			}
		}
		for _, field := range setFields {
			if doc.Sets == nil {
				doc.Sets = make(map[string][]string)
			}
			if doc.Sets[field] == nil {
				doc.Sets[field] = []string{}
			}
			sort.Strings(doc.Sets[field])
		}
		docs[i] = doc
	}
	return docs, nil
}

func (s *GormStore) AtomicUpdate(ctx context.Context, collection, id string, up Update) error {
	if err := up.validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Select("doc_id").
			Where("collection = ? AND doc_id = ?", collection, id).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if up.AddToSet != nil {
			// ON CONFLICT DO NOTHING makes the membership check and the
			// insert one atomic statement; zero rows affected means the
			// member was already present.
			res := tx.Exec(
				`INSERT INTO document_members (collection, doc_id, field, member, created_at)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT DO NOTHING`,
				collection, id, up.AddToSet.Field, up.AddToSet.Member, time.Now().UTC(),
			)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 && up.Strict {
				return ErrConditionFailed
			}
		}

		if up.RemoveFromSet != nil {
			res := tx.Exec(
				`DELETE FROM document_members
				 WHERE collection = ? AND doc_id = ? AND field = ? AND member = ?`,
				collection, id, up.RemoveFromSet.Field, up.RemoveFromSet.Member,
			)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 && up.Strict {
				return ErrConditionFailed
			}
		}

		for field, delta := range up.IncrementBy {
			res := tx.Exec(
				`UPDATE document_counters SET value = value + ?
				 WHERE collection = ? AND doc_id = ? AND field = ?`,
				delta, collection, id, field,
			)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				c := documentCounter{
					Collection: collection,
					DocID:      id,
					Field:      field,
					Value:      delta,
				}
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConditionFailed) {
			return err
		}
		return unavailable(err)
	}
	return nil
}
