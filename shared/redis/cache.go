package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache stores JSON-serialised read model projections of type T under a
// common key prefix. A zero TTL means entries never expire; they are refreshed
// by the command side after every mutation instead.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached projection for id, or (nil, false) on a miss.
// A corrupt entry counts as a miss; the caller will fall back to the write
// store and overwrite it.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("view cache: corrupt entry for %s%s: %v", c.prefix, id, err)
		return nil, false
	}
	return &v, true
}

// Put stores or refreshes the projection for id. A failed cache write is
// non-fatal and only logged: the write store remains the source of truth.
func (c *ViewCache[T]) Put(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("view cache: marshal error for %s%s: %v", c.prefix, id, err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+id, data, c.ttl).Err(); err != nil {
		log.Printf("view cache: write error for %s%s: %v", c.prefix, id, err)
	}
}

// Invalidate removes the projection for id.
func (c *ViewCache[T]) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		log.Printf("view cache: delete error for %s%s: %v", c.prefix, id, err)
	}
}
