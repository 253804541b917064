package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

var errBoom = errors.New("boom")

// fakeAPI records calls and answers from its fields. Hooks run before the
// reply, while the store holds no lock.
type fakeAPI struct {
	mu     sync.Mutex
	calls  map[string]int
	detail domain.ProjectDetail
	nextID int

	loadErr   error
	createErr error
	updateErr error
	moveErr   error
	deleteErr error

	onMove   func(id string, mv domain.MoveRequest)
	onUpdate func(id string)
	onDelete func(id string)
	moves    []domain.MoveRequest
	created  []domain.Task
}

func newFakeAPI(detail domain.ProjectDetail) *fakeAPI {
	return &fakeAPI{calls: map[string]int{}, detail: detail}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) GetProject(_ context.Context, id string) (domain.ProjectDetail, error) {
	f.record("get")
	if f.loadErr != nil {
		return domain.ProjectDetail{}, f.loadErr
	}
	d := f.detail
	d.ID = id
	return d, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, in domain.NewTask) (domain.Task, error) {
	f.record("create")
	if f.createErr != nil {
		return domain.Task{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order := 0
	for _, t := range append(append([]domain.Task(nil), f.detail.Tasks...), f.created...) {
		if t.ColumnID == in.ColumnID && t.Order >= order {
			order = t.Order + 1
		}
	}
	task := domain.Task{
		ID:       fmt.Sprintf("task-new%d", f.nextID),
		Content:  in.Content,
		Priority: in.Priority,
		ColumnID: in.ColumnID,
		Order:    order,
	}
	f.created = append(f.created, task)
	return task, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	f.record("update")
	if f.onUpdate != nil {
		f.onUpdate(id)
	}
	if f.updateErr != nil {
		return domain.Task{}, f.updateErr
	}
	t := domain.Task{ID: id}
	patch.Apply(&t)
	return t, nil
}

func (f *fakeAPI) MoveTask(_ context.Context, id string, mv domain.MoveRequest) (domain.Task, error) {
	f.record("move")
	f.mu.Lock()
	f.moves = append(f.moves, mv)
	f.mu.Unlock()
	if f.onMove != nil {
		f.onMove(id, mv)
	}
	if f.moveErr != nil {
		return domain.Task{}, f.moveErr
	}
	t := domain.Task{ID: id}
	if mv.ColumnID != nil {
		t.ColumnID = *mv.ColumnID
	}
	if mv.Order != nil {
		t.Order = *mv.Order
	}
	return t, nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) error {
	f.record("delete")
	if f.onDelete != nil {
		f.onDelete(id)
	}
	return f.deleteErr
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// sampleDetail is a board with columns todo, doing and done and two tasks in
// todo.
func sampleDetail() domain.ProjectDetail {
	return domain.ProjectDetail{
		Project: domain.Project{Title: "Launch"},
		Columns: []domain.Column{
			{ID: "todo", Title: "To Do", Order: 0},
			{ID: "doing", Title: "In Progress", Order: 1},
			{ID: "done", Title: "Done", Order: 2},
		},
		Tasks: []domain.Task{
			{ID: "t1", Content: "write brief", Priority: domain.PriorityHigh, ColumnID: "todo", Order: 0},
			{ID: "t2", Content: "book venue", Priority: domain.PriorityLow, ColumnID: "todo", Order: 1},
		},
	}
}

func loadedStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()
	s := NewStore(api, WithLogger(quietLogger()))
	if err := s.LoadProject(context.Background(), "proj-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func columnIDs(cols []domain.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.ID
	}
	return out
}

func intPtr(n int) *int { return &n }
func strPtr(s string) *string { return &s }
