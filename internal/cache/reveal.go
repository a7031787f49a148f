// Package cache provides a look-aside Redis cache for reveal markers.
// Reveal records are write-once, so a cached marker can never go stale; a
// miss or a cache failure just falls through to the store.
package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/leadgrid/leadgrid-server/internal/model"
)

// RevealCache caches the existence of reveal records. Nil-safe: a nil
// cache reports every key as unseen and drops marks.
type RevealCache struct {
	client *redis.Client
}

// New creates a reveal cache from a Redis URL. An empty URL disables the
// cache and returns nil.
func New(url string) (*RevealCache, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &RevealCache{client: redis.NewClient(opts)}, nil
}

func key(userID, profileID uuid.UUID, revealType model.RevealType) string {
	return fmt.Sprintf("reveal:%s:%s:%s", userID, profileID, revealType)
}

// Seen reports whether a reveal marker is cached. Errors are treated as a
// miss; the store remains the source of truth.
func (c *RevealCache) Seen(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) bool {
	if c == nil {
		return false
	}
	n, err := c.client.Exists(ctx, key(userID, profileID, revealType)).Result()
	return err == nil && n > 0
}

// Mark caches a reveal marker. Best effort; a failed mark only costs a
// store lookup on the next call.
func (c *RevealCache) Mark(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) {
	if c == nil {
		return
	}
	c.client.Set(ctx, key(userID, profileID, revealType), 1, 0)
}

// Close releases the underlying client.
func (c *RevealCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
