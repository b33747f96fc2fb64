package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

type backend interface {
	ListTasksByOwner(ctx context.Context, email string) ([]domain.Task, error)
	CreateTask(ctx context.Context, owner string, t domain.Task) (string, error)
	UpdateTask(ctx context.Context, owner, id string, u domain.TaskUpdate) error
	DeleteTask(ctx context.Context, owner, id string) error
	ReorderTasks(ctx context.Context, owner string, placements []domain.Placement) error
}

// Cache wraps a Storage instance with Redis-backed caching of per-owner
// task lists. Every mutation evicts the owner's cached list.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis
// client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) ListTasksByOwner(ctx context.Context, email string) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, email); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListTasksByOwner(ctx, email)
	if err != nil {
		return nil, err
	}

	c.store(ctx, email, tasks)
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, owner string, t domain.Task) (string, error) {
	id, err := c.base.CreateTask(ctx, owner, t)
	if err != nil {
		return "", err
	}
	c.evict(ctx, owner)
	return id, nil
}

func (c *Cache) UpdateTask(ctx context.Context, owner, id string, u domain.TaskUpdate) error {
	if err := c.base.UpdateTask(ctx, owner, id, u); err != nil {
		return err
	}
	c.evict(ctx, owner)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, owner, id string) error {
	if err := c.base.DeleteTask(ctx, owner, id); err != nil {
		return err
	}
	c.evict(ctx, owner)
	return nil
}

func (c *Cache) ReorderTasks(ctx context.Context, owner string, placements []domain.Placement) error {
	if err := c.base.ReorderTasks(ctx, owner, placements); err != nil {
		return err
	}
	c.evict(ctx, owner)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, owner string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(owner)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without
			// failing.
			_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, owner string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(owner), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, owner string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(owner)).Result()
}

func tasksCacheKey(owner string) string {
	return "tasks:" + owner
}
