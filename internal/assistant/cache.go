package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	articleKeyPrefix       = "assistant:article:"
	defaultArticleCacheTTL = 24 * time.Hour
)

// ArticleCache keeps generated blog articles by topic.
type ArticleCache interface {
	Get(ctx context.Context, topic string) (string, bool, error)
	Set(ctx context.Context, topic, article string) error
}

// RedisArticleCache stores articles as plain strings with a TTL.
type RedisArticleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisArticleCache(client *redis.Client, ttl time.Duration) *RedisArticleCache {
	if client == nil {
		panic("assistant: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultArticleCacheTTL
	}
	return &RedisArticleCache{client: client, ttl: ttl}
}

func (c *RedisArticleCache) Get(ctx context.Context, topic string) (string, bool, error) {
	val, err := c.client.Get(ctx, articleKey(topic)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("assistant: cache get: %w", err)
	}
	return val, true, nil
}

func (c *RedisArticleCache) Set(ctx context.Context, topic, article string) error {
	if err := c.client.Set(ctx, articleKey(topic), article, c.ttl).Err(); err != nil {
		return fmt.Errorf("assistant: cache set: %w", err)
	}
	return nil
}

// Topics are case-folded so "Diş Beyazlatma" and "diş beyazlatma" share an entry.
func articleKey(topic string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(topic))))
	return articleKeyPrefix + hex.EncodeToString(sum[:16])
}
