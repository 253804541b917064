package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

func (c *Client) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	q := url.Values{}
	if filter.ColumnID != "" {
		q.Set("column_id", filter.ColumnID)
	}
	if filter.AssigneeID != "" {
		q.Set("assignee_id", filter.AssigneeID)
	}
	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.Task
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/api/tasks",
		path:     path,
		fallback: "Failed to fetch tasks",
	}, &out)
	return out, err
}

// CreateTask creates a task at the end of its column. The server assigns the
// identifier and order.
func (c *Client) CreateTask(ctx context.Context, in domain.NewTask) (domain.Task, error) {
	var out domain.Task
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/api/tasks",
		path:     "/api/tasks",
		body:     in,
		fallback: "Failed to create task",
	}, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	var out domain.Task
	err := c.do(ctx, call{
		method:   http.MethodPut,
		route:    "/api/tasks/:id",
		path:     "/api/tasks/" + url.PathEscape(id),
		body:     patch,
		fallback: "Failed to update task",
	}, &out)
	return out, err
}

// MoveTask changes a task's column and/or order. One idempotency key is
// generated per call and reused across retries, so a retry of a request the
// gateway already applied is not applied twice.
func (c *Client) MoveTask(ctx context.Context, id string, mv domain.MoveRequest) (domain.Task, error) {
	key := uuid.NewString()
	req := call{
		method:   http.MethodPatch,
		route:    "/api/tasks/:id/move",
		path:     "/api/tasks/" + url.PathEscape(id) + "/move",
		body:     mv,
		headers:  map[string]string{headerIdempotencyKey: key},
		fallback: "Failed to move task",
	}

	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		var out domain.Task
		err := c.do(ctx, req, &out)
		if err == nil {
			return out, nil
		}
		if attempt >= c.moveRetries || !retryable(err) || ctx.Err() != nil {
			return domain.Task{}, err
		}
		c.logger.WithFields(log.Fields{
			"task_id": id,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("retrying task move")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.Task{}, err
		case <-timer.C:
		}
		delay *= 2
	}
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		route:    "/api/tasks/:id",
		path:     "/api/tasks/" + url.PathEscape(id),
		fallback: "Failed to delete task",
	}, nil)
}
