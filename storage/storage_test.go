package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var tick int
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

var owner = domain.User{ID: "user-1", Name: "Ada", Email: "ada@example.com"}

func seedProject(t *testing.T, s *Storage) domain.ProjectDetail {
	t.Helper()
	detail, err := s.CreateProject(context.Background(), owner, domain.NewProject{Title: "Launch"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return detail
}

func TestCreateProjectAddsDefaultColumnsAndOwner(t *testing.T) {
	s := newTestStorage(t)
	detail := seedProject(t, s)

	if detail.Title != "Launch" || detail.Status != domain.StatusPlanning {
		t.Fatalf("unexpected project: %+v", detail.Project)
	}
	if detail.CreatedBy != owner.ID || detail.CreatedByName != "Ada" || detail.MemberCount != 1 {
		t.Fatalf("unexpected ownership: %+v", detail.Project)
	}
	if len(detail.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(detail.Columns))
	}
	for i, c := range detail.Columns {
		if c.Title != domain.DefaultColumnTitles[i] || c.Order != i || c.ProjectID != detail.ID {
			t.Fatalf("unexpected column %d: %+v", i, c)
		}
	}
	if len(detail.Members) != 1 || detail.Members[0].Role != "owner" || detail.Members[0].ID != owner.ID {
		t.Fatalf("unexpected members: %+v", detail.Members)
	}
	if len(detail.Tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(detail.Tasks))
	}
}

func TestCreateProjectRequiresTitle(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.CreateProject(context.Background(), owner, domain.NewProject{Title: "  "})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListProjectsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	first := seedProject(t, s)
	second, err := s.CreateProject(ctx, owner, domain.NewProject{Title: "Second"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != second.ID || projects[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", projects)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetProject(context.Background(), "proj-missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProject(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	detail := seedProject(t, s)

	status := domain.StatusInProgress
	progress := 40
	p, err := s.UpdateProject(ctx, detail.ID, domain.ProjectPatch{Status: &status, Progress: &progress})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Status != status || p.Progress != 40 || p.Title != "Launch" {
		t.Fatalf("unexpected project: %+v", p)
	}

	if _, err := s.UpdateProject(ctx, detail.ID, domain.ProjectPatch{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty patch, got %v", err)
	}
	if _, err := s.UpdateProject(ctx, "proj-missing", domain.ProjectPatch{Status: &status}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	detail := seedProject(t, s)
	todo, doing := detail.Columns[0].ID, detail.Columns[1].ID

	first, err := s.CreateTask(ctx, domain.NewTask{Content: "write brief", ColumnID: todo, AssigneeID: owner.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Order != 0 || first.Priority != domain.PriorityMedium || first.AssigneeName != "Ada" {
		t.Fatalf("unexpected task: %+v", first)
	}
	second, err := s.CreateTask(ctx, domain.NewTask{Content: "book venue", ColumnID: todo, Priority: domain.PriorityHigh})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Order != 1 {
		t.Fatalf("expected order 1, got %d", second.Order)
	}

	content := "rewrite brief"
	updated, err := s.UpdateTask(ctx, first.ID, domain.TaskPatch{Content: &content, AssigneeID: new(string)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != content || updated.AssigneeID != "" || updated.Order != 0 {
		t.Fatalf("unexpected update: %+v", updated)
	}

	moved, err := s.MoveTask(ctx, first.ID, domain.MoveRequest{ColumnID: &doing, Order: intPtr(0)})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.ColumnID != doing || moved.Order != 0 {
		t.Fatalf("unexpected move: %+v", moved)
	}

	inDoing, err := s.ListTasks(ctx, domain.TaskFilter{ColumnID: doing})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(inDoing) != 1 || inDoing[0].ID != first.ID {
		t.Fatalf("unexpected tasks in doing: %+v", inDoing)
	}

	if err := s.DeleteTask(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTask(ctx, second.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	detail := seedProject(t, s)

	if _, err := s.CreateTask(ctx, domain.NewTask{Content: " ", ColumnID: detail.Columns[0].ID}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.CreateTask(ctx, domain.NewTask{Content: "x", ColumnID: "col-missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMoveTaskRejectsForeignColumn(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	a := seedProject(t, s)
	b, err := s.CreateProject(ctx, owner, domain.NewProject{Title: "Other"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	task, err := s.CreateTask(ctx, domain.NewTask{Content: "x", ColumnID: a.Columns[0].ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	foreign := b.Columns[0].ID
	if _, err := s.MoveTask(ctx, task.ID, domain.MoveRequest{ColumnID: &foreign}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.MoveTask(ctx, task.ID, domain.MoveRequest{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty move, got %v", err)
	}
	if _, err := s.MoveTask(ctx, "task-missing", domain.MoveRequest{Order: intPtr(1)}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestColumns(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	detail := seedProject(t, s)

	col, err := s.CreateColumn(ctx, detail.ID, "Blocked")
	if err != nil {
		t.Fatalf("create column: %v", err)
	}
	if col.Order != 4 {
		t.Fatalf("expected order 4, got %d", col.Order)
	}
	if _, err := s.CreateColumn(ctx, "proj-missing", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	renamed, err := s.UpdateColumn(ctx, col.ID, "Waiting")
	if err != nil || renamed.Title != "Waiting" {
		t.Fatalf("rename: %+v %v", renamed, err)
	}

	orders := []domain.ColumnOrder{{ID: col.ID, Order: 0}, {ID: detail.Columns[0].ID, Order: 1}}
	if err := s.ReorderColumns(ctx, orders); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	cols, err := s.ListColumns(ctx, detail.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if cols[0].ID != col.ID {
		t.Fatalf("expected %s first, got %+v", col.ID, cols)
	}

	pid, err := s.ProjectOfColumn(ctx, col.ID)
	if err != nil || pid != detail.ID {
		t.Fatalf("project of column: %s %v", pid, err)
	}
}

func TestDeletesCascade(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	detail := seedProject(t, s)
	col := detail.Columns[0].ID
	task, err := s.CreateTask(ctx, domain.NewTask{Content: "x", ColumnID: col})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := s.DeleteColumn(ctx, col); err != nil {
		t.Fatalf("delete column: %v", err)
	}
	if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected task removed with its column, got %v", err)
	}

	if err := s.DeleteProject(ctx, detail.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	cols, err := s.ListColumns(ctx, detail.ID)
	if err != nil || len(cols) != 0 {
		t.Fatalf("expected columns removed, got %+v %v", cols, err)
	}
	if err := s.DeleteProject(ctx, detail.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDueDateRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	detail := seedProject(t, s)

	due := time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)
	task, err := s.CreateTask(ctx, domain.NewTask{Content: "x", ColumnID: detail.Columns[0].ID, DueDate: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("unexpected due date: %v", task.DueDate)
	}
}

func intPtr(n int) *int { return &n }
