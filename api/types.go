package api

import (
	"context"

	"taskboard/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	Ping(ctx context.Context) error

	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.ProjectDetail, error)
	CreateProject(ctx context.Context, owner domain.User, in domain.NewProject) (domain.ProjectDetail, error)
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListColumns(ctx context.Context, projectID string) ([]domain.Column, error)
	CreateColumn(ctx context.Context, projectID, title string) (domain.Column, error)
	UpdateColumn(ctx context.Context, id, title string) (domain.Column, error)
	ReorderColumns(ctx context.Context, orders []domain.ColumnOrder) error
	DeleteColumn(ctx context.Context, id string) error

	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	CreateTask(ctx context.Context, in domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	MoveTask(ctx context.Context, id string, mv domain.MoveRequest) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Authenticator is implemented by types able to resolve the caller from an
// Authorization header.
type Authenticator interface {
	UserFromAuthHeader(string) (domain.User, error)
}

// Deduper prevents processing of duplicate requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}
