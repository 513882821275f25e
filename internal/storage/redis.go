package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pagebuilder/internal/domain"
)

const redisKeyPrefix = "pagebuilder:site:"

// RedisDocumentStore keeps each site's document under pagebuilder:site:<id>
// with no expiry.
type RedisDocumentStore struct {
	client *redis.Client
	prefix string
}

var _ domain.DocumentStore = (*RedisDocumentStore)(nil)

// NewRedisDocumentStore parses a redis:// URL, overriding its password when
// one is given, and pings the server.
func NewRedisDocumentStore(ctx context.Context, redisURL, password string) (*RedisDocumentStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisDocumentStoreWithClient(client), nil
}

// NewRedisDocumentStoreWithClient wraps an existing client.
func NewRedisDocumentStoreWithClient(client *redis.Client) *RedisDocumentStore {
	return &RedisDocumentStore{client: client, prefix: redisKeyPrefix}
}

func (s *RedisDocumentStore) key(siteID string) string {
	return s.prefix + siteID
}

func (s *RedisDocumentStore) LoadDocument(ctx context.Context, siteID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(siteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis load document: %w", err)
	}
	return data, nil
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, siteID string, data []byte) error {
	if err := s.client.Set(ctx, s.key(siteID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis save document: %w", err)
	}
	return nil
}

func (s *RedisDocumentStore) Close() error {
	return s.client.Close()
}
