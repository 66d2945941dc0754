package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMirror stores the snapshot as a single JSON value in Redis.
type RedisMirror struct {
	client *redis.Client
	key    string
}

// NewRedisMirror connects to redisURL and namespaces the snapshot by account.
func NewRedisMirror(redisURL, account string) (*RedisMirror, error) {
	if err := validateAccount(account); err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisMirrorWithClient(client, account), nil
}

// NewRedisMirrorWithClient builds a mirror from an existing client.
func NewRedisMirrorWithClient(client *redis.Client, account string) *RedisMirror {
	return &RedisMirror{client: client, key: redisKey(account)}
}

func redisKey(account string) string {
	return "codecks:" + account + ":snapshot"
}

// Load fetches and decodes the stored snapshot.
func (m *RedisMirror) Load(ctx context.Context) (Document, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Document{}, ErrMirrorNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("load mirror: %w", err)
	}
	return decodeDocument(data)
}

// Save overwrites the stored snapshot. A single SET replaces the value atomically.
func (m *RedisMirror) Save(ctx context.Context, doc Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, m.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
