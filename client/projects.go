package client

import (
	"context"
	"net/http"
	"net/url"

	"taskboard/domain"
)

func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/api/projects",
		path:     "/api/projects",
		fallback: "Failed to fetch projects",
	}, &out)
	return out, err
}

// GetProject fetches a project with its columns, tasks and members.
func (c *Client) GetProject(ctx context.Context, id string) (domain.ProjectDetail, error) {
	var out domain.ProjectDetail
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/api/projects/:id",
		path:     "/api/projects/" + url.PathEscape(id),
		fallback: "Failed to fetch project",
	}, &out)
	return out, err
}

// CreateProject creates a project; the response carries its default columns.
func (c *Client) CreateProject(ctx context.Context, in domain.NewProject) (domain.ProjectDetail, error) {
	var out domain.ProjectDetail
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/api/projects",
		path:     "/api/projects",
		body:     in,
		fallback: "Failed to create project",
	}, &out)
	return out, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	var out domain.Project
	err := c.do(ctx, call{
		method:   http.MethodPut,
		route:    "/api/projects/:id",
		path:     "/api/projects/" + url.PathEscape(id),
		body:     patch,
		fallback: "Failed to update project",
	}, &out)
	return out, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		route:    "/api/projects/:id",
		path:     "/api/projects/" + url.PathEscape(id),
		fallback: "Failed to delete project",
	}, nil)
}
