package loginstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed login-state store. States
// expire on their own after ttl; a completed callback removes them
// earlier via GETDEL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: "login_state:",
		ttl:    ttl,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Create(ctx context.Context, s State) error {
	if s.ID == "" || s.Provider == "" {
		return fmt.Errorf("loginstate: missing id or provider")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("loginstate: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err()
}

func (r *RedisStore) Consume(ctx context.Context, id string) (*State, error) {
	val, err := r.client.GetDel(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return nil, nil // unknown, expired, or already consumed
	}
	if err != nil {
		return nil, err
	}

	var s State
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("loginstate: failed to unmarshal: %w", err)
	}

	return &s, nil
}
