package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite serializes writers; a single connection avoids table-lock
	// errors under the concurrency tests
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s := NewGormStore(db)
	require.NoError(t, s.Migrate())
	return s
}

func runWithDrivers(t *testing.T, fn func(t *testing.T, s EntityStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("redis", func(t *testing.T) {
		fn(t, newTestRedisStore(t))
	})
	t.Run("gorm", func(t *testing.T) {
		fn(t, newTestGormStore(t))
	})
}

func postDoc() *Document {
	return &Document{
		Data:     json.RawMessage(`{"title":"hello"}`),
		Sets:     map[string][]string{"likedBy": {}},
		Counters: map[string]int64{"likes": 0},
		SortKey:  time.Now().UnixNano(),
	}
}

func TestCreateAndGet(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		require.NoError(t, s.Create(ctx, "posts", doc))
		require.NotEmpty(t, doc.ID)

		got, err := s.Get(ctx, "posts", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.JSONEq(t, `{"title":"hello"}`, string(got.Data))
		assert.Equal(t, []string{}, got.Sets["likedBy"])
		assert.Equal(t, int64(0), got.Counters["likes"])
	})
}

func TestCreateDuplicateID(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		doc.ID = "fixed-id"
		require.NoError(t, s.Create(ctx, "posts", doc))

		dup := postDoc()
		dup.ID = "fixed-id"
		err := s.Create(ctx, "posts", dup)
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestGetMissing(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		_, err := s.Get(context.Background(), "posts", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestQueryOrdering(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		for i, id := range []string{"a", "b", "c"} {
			doc := &Document{
				ID:      id,
				Data:    json.RawMessage(`{}`),
				SortKey: int64(i + 1),
			}
			require.NoError(t, s.Create(ctx, "events", doc))
		}

		asc, err := s.Query(ctx, "events", QueryOptions{})
		require.NoError(t, err)
		require.Len(t, asc, 3)
		assert.Equal(t, "a", asc[0].ID)
		assert.Equal(t, "c", asc[2].ID)

		desc, err := s.Query(ctx, "events", QueryOptions{Descending: true})
		require.NoError(t, err)
		assert.Equal(t, "c", desc[0].ID)

		page, err := s.Query(ctx, "events", QueryOptions{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "b", page[0].ID)
	})
}

func TestQueryEmptyCollection(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		docs, err := s.Query(context.Background(), "groups", QueryOptions{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestAtomicUpdateAddWithCounter(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		require.NoError(t, s.Create(ctx, "posts", doc))

		err := s.AtomicUpdate(ctx, "posts", doc.ID, Update{
			AddToSet:    &SetMutation{Field: "likedBy", Member: "bob"},
			IncrementBy: map[string]int64{"likes": 1},
			Strict:      true,
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, "posts", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, got.Sets["likedBy"])
		assert.Equal(t, int64(1), got.Counters["likes"])
	})
}

func TestAtomicUpdateStrictDuplicateAdd(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		require.NoError(t, s.Create(ctx, "posts", doc))

		up := Update{
			AddToSet:    &SetMutation{Field: "likedBy", Member: "bob"},
			IncrementBy: map[string]int64{"likes": 1},
			Strict:      true,
		}
		require.NoError(t, s.AtomicUpdate(ctx, "posts", doc.ID, up))

		err := s.AtomicUpdate(ctx, "posts", doc.ID, up)
		assert.ErrorIs(t, err, ErrConditionFailed)

		// the failed update must not have touched the counter
		got, err := s.Get(ctx, "posts", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Counters["likes"])
		assert.Len(t, got.Sets["likedBy"], 1)
	})
}

func TestAtomicUpdateStrictRemoveAbsent(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		require.NoError(t, s.Create(ctx, "posts", doc))

		err := s.AtomicUpdate(ctx, "posts", doc.ID, Update{
			RemoveFromSet: &SetMutation{Field: "likedBy", Member: "bob"},
			IncrementBy:   map[string]int64{"likes": -1},
			Strict:        true,
		})
		assert.ErrorIs(t, err, ErrConditionFailed)

		got, err := s.Get(ctx, "posts", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Counters["likes"])
	})
}

func TestAtomicUpdateMissingDocument(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		err := s.AtomicUpdate(context.Background(), "posts", "nope", Update{
			AddToSet: &SetMutation{Field: "likedBy", Member: "bob"},
			Strict:   true,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAtomicUpdateRoundTrip(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		require.NoError(t, s.Create(ctx, "posts", doc))

		require.NoError(t, s.AtomicUpdate(ctx, "posts", doc.ID, Update{
			AddToSet:    &SetMutation{Field: "likedBy", Member: "bob"},
			IncrementBy: map[string]int64{"likes": 1},
			Strict:      true,
		}))
		require.NoError(t, s.AtomicUpdate(ctx, "posts", doc.ID, Update{
			RemoveFromSet: &SetMutation{Field: "likedBy", Member: "bob"},
			IncrementBy:   map[string]int64{"likes": -1},
			Strict:        true,
		}))

		got, err := s.Get(ctx, "posts", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Counters["likes"])
		assert.Empty(t, got.Sets["likedBy"])
	})
}

func TestConcurrentDuplicateAdd(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		require.NoError(t, s.Create(ctx, "posts", doc))

		const racers = 16
		var wg sync.WaitGroup
		errs := make([]error, racers)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.AtomicUpdate(ctx, "posts", doc.ID, Update{
					AddToSet:    &SetMutation{Field: "likedBy", Member: "bob"},
					IncrementBy: map[string]int64{"likes": 1},
					Strict:      true,
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrConditionFailed)
			}
		}
		assert.Equal(t, 1, succeeded)

		got, err := s.Get(ctx, "posts", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Counters["likes"])
		assert.Equal(t, []string{"bob"}, got.Sets["likedBy"])
	})
}

func TestUpdateValidation(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := postDoc()
		require.NoError(t, s.Create(ctx, "posts", doc))

		assert.Error(t, s.AtomicUpdate(ctx, "posts", doc.ID, Update{}))
		assert.Error(t, s.AtomicUpdate(ctx, "posts", doc.ID, Update{
			AddToSet: &SetMutation{Field: "likedBy"},
		}))
	})
}

func TestNonStrictUpdateIdempotent(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := &Document{
			Data: json.RawMessage(`{}`),
			Sets: map[string][]string{"members": {"alice"}},
		}
		require.NoError(t, s.Create(ctx, "groups", doc))

		up := Update{AddToSet: &SetMutation{Field: "members", Member: "alice"}}
		require.NoError(t, s.AtomicUpdate(ctx, "groups", doc.ID, up))

		got, err := s.Get(ctx, "groups", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, got.Sets["members"])
	})
}

func TestNonStrictRemoveWithoutDeclaredSets(t *testing.T) {
	runWithDrivers(t, func(t *testing.T, s EntityStore) {
		ctx := context.Background()

		doc := &Document{Data: json.RawMessage(`{}`)}
		require.NoError(t, s.Create(ctx, "claims", doc))

		up := Update{RemoveFromSet: &SetMutation{Field: "members", Member: "alice"}}
		require.NoError(t, s.AtomicUpdate(ctx, "claims", doc.ID, up))

		got, err := s.Get(ctx, "claims", doc.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Sets["members"])
	})
}
