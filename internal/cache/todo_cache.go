package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	dom "todolist/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyListPrefix = "todo:list:"
	keyGeneration = "todo:list:gen"
)

// TodoCache caches the full todo list in Redis.
//
// Lists are stored per generation. Invalidate bumps the generation, so a
// snapshot read before a write can only ever land under a key nobody reads.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// ListKey is the Redis key holding the list for generation gen.
func ListKey(gen int64) string {
	return keyListPrefix + strconv.FormatInt(gen, 10)
}

// Generation returns the current list generation (0 before the first write).
func (c *TodoCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the list cached for gen, or nil on a miss.
func (c *TodoCache) GetList(ctx context.Context, gen int64) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, ListKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Todo{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores a list read while gen was current.
func (c *TodoCache) SetList(ctx context.Context, gen int64, list []dom.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, ListKey(gen), b, c.ttl).Err()
}

// Invalidate starts a new generation (called after every write). Lists of
// older generations are left to expire.
func (c *TodoCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, keyGeneration).Err()
}
