package client

import (
	"context"
	"net/http"
	"net/url"

	"taskboard/domain"
)

func (c *Client) ListColumns(ctx context.Context, projectID string) ([]domain.Column, error) {
	var out []domain.Column
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/api/columns",
		path:     "/api/columns?" + url.Values{"project_id": {projectID}}.Encode(),
		fallback: "Failed to fetch columns",
	}, &out)
	return out, err
}

func (c *Client) CreateColumn(ctx context.Context, projectID, title string) (domain.Column, error) {
	var out domain.Column
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/api/columns",
		path:     "/api/columns",
		body:     map[string]string{"title": title, "project_id": projectID},
		fallback: "Failed to create column",
	}, &out)
	return out, err
}

func (c *Client) UpdateColumn(ctx context.Context, id, title string) (domain.Column, error) {
	var out domain.Column
	err := c.do(ctx, call{
		method:   http.MethodPut,
		route:    "/api/columns/:id",
		path:     "/api/columns/" + url.PathEscape(id),
		body:     map[string]string{"title": title},
		fallback: "Failed to update column",
	}, &out)
	return out, err
}

// ReorderColumns persists column ordinals. The board store never calls this:
// drag reordering of columns is client-only.
func (c *Client) ReorderColumns(ctx context.Context, orders []domain.ColumnOrder) error {
	return c.do(ctx, call{
		method:   http.MethodPatch,
		route:    "/api/columns/reorder",
		path:     "/api/columns/reorder",
		body:     map[string][]domain.ColumnOrder{"columns": orders},
		fallback: "Failed to reorder columns",
	}, nil)
}

func (c *Client) DeleteColumn(ctx context.Context, id string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		route:    "/api/columns/:id",
		path:     "/api/columns/" + url.PathEscape(id),
		fallback: "Failed to delete column",
	}, nil)
}
