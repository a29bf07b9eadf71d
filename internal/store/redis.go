package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the production EntityStore driver. Documents are hashes,
// set fields are native Redis sets, and a per-collection sorted set keeps
// the SortKey ordering. All conditional mutation happens inside Lua
// scripts, so an update is atomic on the server regardless of how many
// clients race.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a RedisStore over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func docKey(collection, id string) string {
	return "cc:doc:" + collection + ":" + id
}

func setKeyBase(collection, id string) string {
	return "cc:set:" + collection + ":" + id + ":"
}

func indexKey(collection string) string {
	return "cc:idx:" + collection
}

// createScript writes the document hash, its set fields, its counters, and
// the index entry, refusing to overwrite an existing document.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'data', ARGV[2], 'sortKey', ARGV[3], 'createdAt', ARGV[4], 'setFields', ARGV[5])
local counters = cjson.decode(ARGV[7])
for field, value in pairs(counters) do
  redis.call('HSET', KEYS[1], 'ctr:'..field, value)
end
local sets = cjson.decode(ARGV[6])
for field, members in pairs(sets) do
  for _, member in ipairs(members) do
    redis.call('SADD', ARGV[8]..field, member)
  end
end
redis.call('ZADD', KEYS[2], tonumber(ARGV[3]), ARGV[1])
return 1
`)

// updateScript evaluates the membership guards and only then applies the
// set mutations and counter increments, all in one server-side step.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 'missing'
end
local strict = ARGV[6] == '1'
if ARGV[2] ~= '' and strict and redis.call('SISMEMBER', ARGV[1]..ARGV[2], ARGV[3]) == 1 then
  return 'conflict'
end
if ARGV[4] ~= '' and strict and redis.call('SISMEMBER', ARGV[1]..ARGV[4], ARGV[5]) == 0 then
  return 'conflict'
end
if ARGV[2] ~= '' then
  redis.call('SADD', ARGV[1]..ARGV[2], ARGV[3])
end
if ARGV[4] ~= '' then
  redis.call('SREM', ARGV[1]..ARGV[4], ARGV[5])
end
local counters = cjson.decode(ARGV[7])
for field, delta in pairs(counters) do
  redis.call('HINCRBY', KEYS[1], 'ctr:'..field, delta)
end
return 'ok'
`)

func (s *RedisStore) Create(ctx context.Context, collection string, doc *Document) error {
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
	setsJSON, err := json.Marshal(nonNilSets(doc.Sets))
	if err != nil {
		return err
	}
	countersJSON, err := json.Marshal(nonNilCounters(doc.Counters))
	if err != nil {
		return err
	}

	res, err := createScript.Run(ctx, s.client,
		[]string{docKey(collection, doc.ID), indexKey(collection)},
		doc.ID,
		string(doc.Data),
		doc.SortKey,
		doc.CreatedAt.UnixNano(),
		string(setFieldsJSON),
		string(setsJSON),
		string(countersJSON),
		setKeyBase(collection, doc.ID),
	).Result()
	if err != nil {
		return unavailable(err)
	}
	if created, ok := res.(int64); ok && created == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	fields, err := s.client.HGetAll(ctx, docKey(collection, id)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return s.assemble(ctx, collection, id, fields)
}

func (s *RedisStore) Query(ctx context.Context, collection string, opts QueryOptions) ([]*Document, error) {
	start := int64(opts.Offset)
	stop := int64(-1)
	if opts.Limit > 0 {
		stop = start + int64(opts.Limit) - 1
	}

	var ids []string
	var err error
	if opts.Descending {
		ids, err = s.client.ZRevRange(ctx, indexKey(collection), start, stop).Result()
	} else {
		ids, err = s.client.ZRange(ctx, indexKey(collection), start, stop).Result()
	}
	if err != nil {
		return nil, unavailable(err)
	}

	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(ctx, collection, id)
		if err != nil {
			// index entries always trail the document hash, so a missing
			// document here is a transport failure, not a gap
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *RedisStore) AtomicUpdate(ctx context.Context, collection, id string, up Update) error {
	if err := up.validate(); err != nil {
		return err
	}

	var addField, addMember, remField, remMember string
	if up.AddToSet != nil {
		addField, addMember = up.AddToSet.Field, up.AddToSet.Member
	}
	if up.RemoveFromSet != nil {
		remField, remMember = up.RemoveFromSet.Field, up.RemoveFromSet.Member
	}
	strict := "0"
	if up.Strict {
		strict = "1"
	}
	countersJSON, err := json.Marshal(nonNilCounters(up.IncrementBy))
	if err != nil {
		return err
	}

	res, err := updateScript.Run(ctx, s.client,
		[]string{docKey(collection, id)},
		setKeyBase(collection, id),
		addField, addMember,
		remField, remMember,
		strict,
		string(countersJSON),
	).Result()
	if err != nil {
		return unavailable(err)
	}
	switch res {
	case "missing":
		return ErrNotFound
	case "conflict":
		return ErrConditionFailed
	}
	return nil
}

func (s *RedisStore) assemble(ctx context.Context, collection, id string, fields map[string]string) (*Document, error) {
	doc := &Document{
		ID:   id,
		Data: json.RawMessage(fields["data"]),
	}
	if v := fields["sortKey"]; v != "" {
		doc.SortKey, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := fields["createdAt"]; v != "" {
		nanos, _ := strconv.ParseInt(v, 10, 64)
		doc.CreatedAt = time.Unix(0, nanos).UTC()
	}

	for field, value := range fields {
		if len(field) > 4 && field[:4] == "ctr:" {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("corrupt counter %q on %s/%s: %w", field, collection, id, err)
			}
			if doc.Counters == nil {
				doc.Counters = make(map[string]int64)
			}
			doc.Counters[field[4:]] = n
		}
	}

	var setFields []string
	if v := fields["setFields"]; v != "" {
		if err := json.Unmarshal([]byte(v), &setFields); err != nil {
			return nil, fmt.Errorf("corrupt set index on %s/%s: %w", collection, id, err)
		}
	}
	for _, field := range setFields {
		members, err := s.client.SMembers(ctx, setKeyBase(collection, id)+field).Result()
		if err != nil {
			return nil, unavailable(err)
		}
		sort.Strings(members)
		if doc.Sets == nil {
			doc.Sets = make(map[string][]string)
		}
		doc.Sets[field] = members
	}
	return doc, nil
}

func nonNilSets(sets map[string][]string) map[string][]string {
	out := make(map[string][]string, len(sets))
	for field, members := range sets {
		if members == nil {
			members = []string{}
		}
		out[field] = members
	}
	return out
}

func nonNilCounters(counters map[string]int64) map[string]int64 {
	if counters == nil {
		return map[string]int64{}
	}
	return counters
}
