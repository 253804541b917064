package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

// Cache wraps a Backend with Redis-backed caching of project detail reads.
// Every write that touches a project evicts that project's entry.
type Cache struct {
	Backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base Backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Backend: base, redis: client, ttl: ttl}
}

func (c *Cache) GetProject(ctx context.Context, id string) (domain.ProjectDetail, error) {
	if detail, ok := c.loadProject(ctx, id); ok {
		return detail, nil
	}

	detail, err := c.Backend.GetProject(ctx, id)
	if err != nil {
		return domain.ProjectDetail{}, err
	}

	c.storeProject(ctx, id, detail)
	return detail, nil
}

func (c *Cache) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	p, err := c.Backend.UpdateProject(ctx, id, patch)
	if err != nil {
		return domain.Project{}, err
	}
	c.evict(ctx, id)
	return p, nil
}

func (c *Cache) DeleteProject(ctx context.Context, id string) error {
	if err := c.Backend.DeleteProject(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *Cache) CreateColumn(ctx context.Context, projectID, title string) (domain.Column, error) {
	col, err := c.Backend.CreateColumn(ctx, projectID, title)
	if err != nil {
		return domain.Column{}, err
	}
	c.evict(ctx, projectID)
	return col, nil
}

func (c *Cache) UpdateColumn(ctx context.Context, id, title string) (domain.Column, error) {
	col, err := c.Backend.UpdateColumn(ctx, id, title)
	if err != nil {
		return domain.Column{}, err
	}
	c.evict(ctx, col.ProjectID)
	return col, nil
}

func (c *Cache) ReorderColumns(ctx context.Context, orders []domain.ColumnOrder) error {
	projects := make([]string, 0, 1)
	seen := map[string]bool{}
	for _, o := range orders {
		if pid := c.projectOfColumn(ctx, o.ID); pid != "" && !seen[pid] {
			seen[pid] = true
			projects = append(projects, pid)
		}
	}
	if err := c.Backend.ReorderColumns(ctx, orders); err != nil {
		return err
	}
	c.evict(ctx, projects...)
	return nil
}

func (c *Cache) DeleteColumn(ctx context.Context, id string) error {
	pid := c.projectOfColumn(ctx, id)
	if err := c.Backend.DeleteColumn(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, pid)
	return nil
}

func (c *Cache) CreateTask(ctx context.Context, in domain.NewTask) (domain.Task, error) {
	t, err := c.Backend.CreateTask(ctx, in)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, c.projectOfColumn(ctx, t.ColumnID))
	return t, nil
}

func (c *Cache) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	t, err := c.Backend.UpdateTask(ctx, id, patch)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, c.projectOfColumn(ctx, t.ColumnID))
	return t, nil
}

func (c *Cache) MoveTask(ctx context.Context, id string, mv domain.MoveRequest) (domain.Task, error) {
	t, err := c.Backend.MoveTask(ctx, id, mv)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, c.projectOfColumn(ctx, t.ColumnID))
	return t, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	pid := c.projectOfTask(ctx, id)
	if err := c.Backend.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, pid)
	return nil
}

func (c *Cache) projectOfColumn(ctx context.Context, columnID string) string {
	if c.redis == nil {
		return ""
	}
	pid, err := c.Backend.ProjectOfColumn(ctx, columnID)
	if err != nil {
		return ""
	}
	return pid
}

func (c *Cache) projectOfTask(ctx context.Context, taskID string) string {
	if c.redis == nil {
		return ""
	}
	pid, err := c.Backend.ProjectOfTask(ctx, taskID)
	if err != nil {
		return ""
	}
	return pid
}

func (c *Cache) loadProject(ctx context.Context, id string) (domain.ProjectDetail, bool) {
	if c.redis == nil {
		return domain.ProjectDetail{}, false
	}
	data, err := c.redis.Get(ctx, projectCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, projectCacheKey(id)).Err()
		}
		return domain.ProjectDetail{}, false
	}
	var detail domain.ProjectDetail
	if err := sonic.Unmarshal(data, &detail); err != nil {
		_ = c.redis.Del(ctx, projectCacheKey(id)).Err()
		return domain.ProjectDetail{}, false
	}
	return detail, true
}

func (c *Cache) storeProject(ctx context.Context, id string, detail domain.ProjectDetail) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(detail)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, projectCacheKey(id), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, projectIDs ...string) {
	if c.redis == nil {
		return
	}
	keys := make([]string, 0, len(projectIDs))
	for _, id := range projectIDs {
		if id != "" {
			keys = append(keys, projectCacheKey(id))
		}
	}
	if len(keys) == 0 {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func projectCacheKey(projectID string) string {
	return "project:" + projectID
}
