package memorydb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"masslaw-api/config"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client redis.UniversalClient
}

func NewRedisClient(ctx context.Context, cfg *config.Config) (*RedisClient, error) {
	// UniversalClient works with both standalone and cluster Redis
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{cfg.Redis.URL},
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		ReadTimeout:  time.Second * 5,
		WriteTimeout: time.Second * 5,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get retrieves a value from Redis
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// Set stores a value in Redis
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Del deletes a key from Redis
func (r *RedisClient) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// GetEmbedding looks up a cached embedding for the given text. The second
// return value reports whether the cache held an entry.
func (r *RedisClient) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	raw, err := r.client.Get(ctx, embeddingKey(text)).Result()
	if err != nil {
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, false
	}
	return vec, true
}

// SetEmbedding caches an embedding for the given text.
func (r *RedisClient) SetEmbedding(ctx context.Context, text string, vec []float32, expiration time.Duration) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, embeddingKey(text), data, expiration).Err()
}

func embeddingKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
