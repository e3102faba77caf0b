package positions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/vertexflow/pkg/errors"
)

// DefaultRedisKey is the hash that holds positions when no key is configured.
const DefaultRedisKey = "vertexflow:positions"

// RedisStore keeps positions in a single Redis hash: field = vertex id,
// value = JSON-encoded [Position].
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the Redis server at addr and verifies the
// connection with PING.
func NewRedisStore(ctx context.Context, addr, key string, timeout time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "redis address is required")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: timeout,
	})

	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", addr)
	}
	return NewRedisStoreFromClient(client, key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load fetches the given ids with HMGET.
func (s *RedisStore) Load(ctx context.Context, ids []string) (map[string]Position, error) {
	out := make(map[string]Position, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	vals, err := s.client.HMGet(ctx, s.key, ids...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "redis HMGET %s", s.key)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p Position
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		out[ids[i]] = p
	}
	return out, nil
}

// Save writes positions with a single HSET.
func (s *RedisStore) Save(ctx context.Context, positions map[string]Position) error {
	if len(positions) == 0 {
		return nil
	}
	fields := make(map[string]any, len(positions))
	for id, p := range positions {
		data, err := json.Marshal(p)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "marshal position of %q", id)
		}
		fields[id] = string(data)
	}
	if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "redis HSET %s", s.key)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
