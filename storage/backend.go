package storage

import (
	"context"

	"taskboard/domain"
)

// Backend is everything the gateway needs from persistence. *Storage and
// *Cache implement it.
type Backend interface {
	Ping(ctx context.Context) error
	EnsureUser(ctx context.Context, u domain.User) error

	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.ProjectDetail, error)
	CreateProject(ctx context.Context, owner domain.User, in domain.NewProject) (domain.ProjectDetail, error)
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ProjectOfColumn(ctx context.Context, columnID string) (string, error)
	ProjectOfTask(ctx context.Context, taskID string) (string, error)

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

var (
	_ Backend = (*Storage)(nil)
	_ Backend = (*Cache)(nil)
)
