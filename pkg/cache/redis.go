package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache holds login sessions and decoded question chapters.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(config *Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// SetSession maps sessionID to userID until ttl passes.
func (c *RedisCache) SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return c.client.Set(ctx, sessionKey(sessionID), userID, ttl).Err()
}

// GetSession returns apperrors.ErrNotFound for unknown or expired sessions.
func (c *RedisCache) GetSession(ctx context.Context, sessionID string) (string, error) {
	userID, err := c.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("session: %w", apperrors.ErrNotFound)
		}
		return "", err
	}
	return userID, nil
}

func (c *RedisCache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (c *RedisCache) GetChapter(ctx context.Context, key string) ([]models.Question, error) {
	var questions []models.Question
	if err := c.getJSON(ctx, key, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *RedisCache) SetChapter(ctx context.Context, key string, questions []models.Question, ttl time.Duration) error {
	return c.setJSON(ctx, key, questions, ttl)
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}
