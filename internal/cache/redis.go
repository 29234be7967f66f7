package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gostore/internal/models"
)

const (
	tokenPrefix = "authtoken:"
	userPrefix  = "authuser:"
)

// RedisStore is the Redis-backed session store. The two key spaces are
// co-located in one database under distinct prefixes; writes and deletes for
// a session are issued as a single pipeline/command so the pair never drifts
// apart under normal operation. Expiry is delegated entirely to Redis TTLs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(token string) string { return tokenPrefix + token }
func userKey(userID string) string { return userPrefix + userID }

func (r *RedisStore) Put(ctx context.Context, token string, user *models.User, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user snapshot: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, tokenKey(token), data, ttl)
	pipe.Set(ctx, userKey(user.ID), token, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisStore) GetUser(ctx context.Context, token string) (*models.User, error) {
	val, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return nil, nil // absent or expired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user snapshot: %w", err)
	}
	return &user, nil
}

func (r *RedisStore) GetToken(ctx context.Context, userID string) (string, error) {
	token, err := r.client.Get(ctx, userKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, nil
}

func (r *RedisStore) Delete(ctx context.Context, token, userID string) error {
	// A single DEL covering both keys; removing absent keys is a no-op.
	if err := r.client.Del(ctx, tokenKey(token), userKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, token, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, tokenKey(token), userKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}
