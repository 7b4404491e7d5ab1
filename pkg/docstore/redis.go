package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

const keyDocument = "docstore:%s:%s"

// Both scripts write ARGV as field/value pairs. createScript refuses an
// existing key and updateScript a missing one.
const createScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`

const updateScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`

// RedisStore keeps each document in one hash, one hash field per top-level
// key holding that key's JSON value.
type RedisStore struct {
	client redis.UniversalClient
	ids    IDGenerator
	create *redis.Script
	update *redis.Script
}

func NewRedisStore(client redis.UniversalClient, ids IDGenerator) *RedisStore {
	return &RedisStore{
		client: client,
		ids:    ids,
		create: redis.NewScript(createScript),
		update: redis.NewScript(updateScript),
	}
}

func documentKey(collection, id string) string {
	return fmt.Sprintf(keyDocument, collection, id)
}

func hashArgs(f fields) []any {
	args := make([]any, 0, len(f)*2)
	for _, key := range f.sortedKeys() {
		args = append(args, key, string(f[key]))
	}
	return args
}

func (s *RedisStore) Create(ctx context.Context, collection string, doc any) (string, error) {
	body, err := encodeObject(doc)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := s.ids.NextID()
		created, err := s.create.Run(ctx, s.client, []string{documentKey(collection, id)}, hashArgs(body.withID(id))...).Int()
		if err != nil {
			return "", err
		}
		if created == 1 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	changes, err := encodePartial(partial)
	if err != nil {
		return err
	}

	updated, err := s.update.Run(ctx, s.client, []string{documentKey(collection, id)}, hashArgs(changes)...).Int()
	if err != nil {
		return err
	}
	if updated == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, collection, id string, out any) (bool, error) {
	values, err := s.client.HGetAll(ctx, documentKey(collection, id)).Result()
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, nil
	}

	body := make(fields, len(values))
	for key, value := range values {
		if !json.Valid([]byte(value)) {
			return true, fmt.Errorf("decode %s/%s: field %s is not JSON", collection, id, key)
		}
		body[key] = json.RawMessage(value)
	}
	if err := body.decode(out); err != nil {
		return true, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

var _ Store = (*RedisStore)(nil)
