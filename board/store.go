// Package board holds the in-memory state of the project board currently on
// screen and the drag interaction logic that rearranges it.
//
// Mutations are optimistic: a Store applies a change to its in-memory lists
// immediately, persists it through the API, and on failure restores the
// snapshot it took right before that change. The store lock is never held
// across a network call, so a second mutation of the same task may run while
// the first is in flight. Each request rolls back only its own snapshot and
// responses are not reconciled against each other: if an earlier request
// fails after a later one succeeded, the earlier snapshot wins. Conflict
// resolution between racing requests is intentionally not attempted.
//
// Column order is client-only. MoveColumn and drag reordering of columns
// never reach the gateway; reloading a project restores the persisted order.
// The gateway does expose PATCH /api/columns/reorder, so persisting column
// order later only needs a call from the drop path.
//
// Task moves persist only the moved task's ordinal. Siblings are not
// renumbered, so after a drop within a column the task can share an ordinal
// with a neighbour and, on reload, sort after it. Reindex renumbers a column
// in memory only.
package board

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// API is the persistence surface used by the Store. *client.Client
// satisfies it.
type API interface {
	GetProject(ctx context.Context, id string) (domain.ProjectDetail, error)
	CreateTask(ctx context.Context, in domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	MoveTask(ctx context.Context, id string, mv domain.MoveRequest) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// State is a copy of everything a view renders.
type State struct {
	ProjectID string
	Project   domain.Project
	Columns   []domain.Column
	Tasks     []domain.Task
	Members   []domain.Member
	Loading   bool
	Err       error
}

// Store owns the columns and tasks of the loaded project. Create one per
// running application and share it.
type Store struct {
	api      API
	logger   *log.Logger
	onChange func(State)

	mu sync.Mutex
	// gen increments on every successful load. Completions carrying an older
	// generation belong to a previous project and are dropped.
	gen       uint64
	projectID string
	project   domain.Project
	columns   []domain.Column
	tasks     []domain.Task
	members   []domain.Member
	loading   int
	err       error
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnChange registers fn to receive the new state after every change.
// fn runs on the goroutine that made the change, without the store lock held.
func WithOnChange(fn func(State)) Option {
	return func(s *Store) { s.onChange = fn }
}

// NewStore creates an empty store backed by api.
func NewStore(api API, opts ...Option) *Store {
	if api == nil {
		panic("board.NewStore: api is nil")
	}
	s := &Store{api: api, logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ProjectID: s.projectID,
		Project:   s.project,
		Columns:   cloneColumns(s.columns),
		Tasks:     cloneTasks(s.tasks),
		Members:   append([]domain.Member(nil), s.members...),
		Loading:   s.loading > 0,
		Err:       s.err,
	}
}

func (s *Store) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// Err returns the last recorded failure, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Columns() []domain.Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneColumns(s.columns)
}

// Tasks returns all tasks in render order.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// TasksInColumn returns the tasks of one column in render order.
func (s *Store) TasksInColumn(columnID string) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.ColumnID == columnID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Task looks up a task by id.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOfTask(s.tasks, id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// LoadProject replaces the board with the project's persisted contents. On
// failure the previous board is kept and a *domain.LoadError is recorded and
// returned.
func (s *Store) LoadProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		err := &domain.ValidationError{Field: "project_id", Reason: "is required"}
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.loading++
	s.err = nil
	s.mu.Unlock()
	s.notify()

	detail, err := s.api.GetProject(ctx, projectID)

	s.mu.Lock()
	s.loading--
	if err != nil {
		lerr := &domain.LoadError{ProjectID: projectID, Err: err}
		s.err = lerr
		s.mu.Unlock()
		s.logger.WithFields(log.Fields{"project_id": projectID, "error": err.Error()}).Warn("load project failed")
		s.notify()
		return lerr
	}
	s.gen++
	s.projectID = projectID
	s.project = detail.Project
	s.columns = cloneColumns(detail.Columns)
	s.tasks = cloneTasks(detail.Tasks)
	s.members = append([]domain.Member(nil), detail.Members...)
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"project_id": projectID,
		"columns":    len(detail.Columns),
		"tasks":      len(detail.Tasks),
	}).Debug("project loaded")
	s.notify()
	return nil
}

// SetColumns replaces the column list. No request is made.
func (s *Store) SetColumns(columns []domain.Column) {
	s.mu.Lock()
	s.columns = cloneColumns(columns)
	s.mu.Unlock()
	s.notify()
}

// SetTasks replaces the task list. No request is made.
func (s *Store) SetTasks(tasks []domain.Task) {
	s.mu.Lock()
	s.tasks = cloneTasks(tasks)
	s.mu.Unlock()
	s.notify()
}

// AddColumn appends a column locally.
func (s *Store) AddColumn(column domain.Column) {
	s.mu.Lock()
	s.columns = append(s.columns, column)
	s.mu.Unlock()
	s.notify()
}

// MoveColumn moves the column activeID to the index of overID. Unknown ids
// are ignored. Column order is not persisted.
func (s *Store) MoveColumn(activeID, overID string) {
	s.editColumns(func(cols []domain.Column) []domain.Column {
		from, to := indexOfColumn(cols, activeID), indexOfColumn(cols, overID)
		if from < 0 || to < 0 {
			return cols
		}
		return domain.Move(cols, from, to)
	})
}

// MoveTask moves the task activeID to the array index of overID without
// touching column membership.
func (s *Store) MoveTask(activeID, overID string) {
	s.editTasks(func(tasks []domain.Task) []domain.Task {
		from, to := indexOfTask(tasks, activeID), indexOfTask(tasks, overID)
		if from < 0 || to < 0 {
			return tasks
		}
		return domain.Move(tasks, from, to)
	})
}

// Reindex rewrites the orders of a column's tasks to 0..n-1 following their
// render order. Nothing else renumbers orders in memory.
func (s *Store) Reindex(columnID string) {
	s.editTasks(func(tasks []domain.Task) []domain.Task {
		n := 0
		for i := range tasks {
			if tasks[i].ColumnID == columnID {
				tasks[i].Order = n
				n++
			}
		}
		return tasks
	})
}

// AddTask creates a task at the end of its column. The task is only added
// locally once the server has assigned its id. Invalid input returns a
// *domain.ValidationError without any request; a failed request returns a
// *domain.PersistError.
func (s *Store) AddTask(ctx context.Context, in domain.NewTask) (domain.Task, error) {
	if in.Priority == "" {
		in.Priority = domain.DefaultPriority
	}
	if err := in.Validate(); err != nil {
		s.fail(err)
		return domain.Task{}, err
	}

	s.mu.Lock()
	if indexOfColumn(s.columns, in.ColumnID) < 0 {
		s.mu.Unlock()
		err := &domain.ValidationError{Field: "column_id", Reason: "is not a column of the loaded project"}
		s.fail(err)
		return domain.Task{}, err
	}
	gen := s.gen
	s.loading++
	s.mu.Unlock()
	s.notify()

	task, err := s.api.CreateTask(ctx, in)

	s.mu.Lock()
	s.loading--
	if err != nil {
		perr := &domain.PersistError{Op: "create task", Err: err}
		s.err = perr
		s.mu.Unlock()
		s.logFailure(perr, false)
		s.notify()
		return domain.Task{}, perr
	}
	if task.ColumnID == "" {
		task.ColumnID = in.ColumnID
	}
	if gen == s.gen && indexOfTask(s.tasks, task.ID) < 0 {
		s.tasks = append(s.tasks, task.Clone())
	}
	s.mu.Unlock()
	s.notify()
	return task, nil
}

// UpdateTask applies patch locally, then persists it. If the request fails
// every editable field of the task is restored to its value before the call.
func (s *Store) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if patch.Empty() {
		err := &domain.ValidationError{Reason: "no fields to update"}
		s.fail(err)
		return domain.Task{}, err
	}
	if err := patch.Validate(); err != nil {
		s.fail(err)
		return domain.Task{}, err
	}

	s.mu.Lock()
	idx := indexOfTask(s.tasks, id)
	if idx < 0 {
		s.mu.Unlock()
		err := domain.NotFound("task", id)
		s.fail(err)
		return domain.Task{}, err
	}
	before := s.tasks[idx].Clone()
	patch.Apply(&s.tasks[idx])
	gen := s.gen
	s.mu.Unlock()
	s.notify()

	saved, err := s.api.UpdateTask(ctx, id, patch)

	s.mu.Lock()
	i := -1
	if gen == s.gen {
		i = indexOfTask(s.tasks, id)
	}
	if err != nil {
		if i >= 0 {
			restoreFields(&s.tasks[i], before)
		}
		perr := &domain.PersistError{Op: "update task", TaskID: id, Err: err}
		s.err = perr
		s.mu.Unlock()
		s.logFailure(perr, i >= 0)
		s.notify()
		return domain.Task{}, perr
	}
	if i >= 0 && saved.AssigneeID == s.tasks[i].AssigneeID {
		s.tasks[i].AssigneeName = saved.AssigneeName
	}
	s.mu.Unlock()
	s.notify()
	return saved, nil
}

// DeleteTask removes the task locally, then persists the deletion. If the
// request fails the task is put back among its former column siblings.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := indexOfTask(s.tasks, id)
	if idx < 0 {
		s.mu.Unlock()
		err := domain.NotFound("task", id)
		s.fail(err)
		return err
	}
	removed := s.tasks[idx]
	next, prev := siblingsAround(s.tasks, idx)
	s.tasks = append(s.tasks[:idx:idx], s.tasks[idx+1:]...)
	gen := s.gen
	s.mu.Unlock()
	s.notify()

	err := s.api.DeleteTask(ctx, id)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	restored := false
	if gen == s.gen && indexOfTask(s.tasks, id) < 0 {
		at := restoreIndex(s.tasks, removed.ColumnID, next, prev, idx)
		s.tasks = insertTask(s.tasks, at, removed)
		restored = true
	}
	perr := &domain.PersistError{Op: "delete task", TaskID: id, Err: err}
	s.err = perr
	s.mu.Unlock()
	s.logFailure(perr, restored)
	s.notify()
	return perr
}

// MoveTaskToColumn reassigns a task to columnID. When order is given the task
// is also placed before the order-th task of that column (or at its end) and
// its ordinal set to order. The move is persisted through the dedicated move
// request; on failure column, ordinal and position are restored. Calling it
// twice with the same arguments is the same as calling it once.
func (s *Store) MoveTaskToColumn(ctx context.Context, id, columnID string, order *int) error {
	return s.moveTask(ctx, id, columnID, order, nil)
}

// placement is where a task sits: its column, ordinal, array index and the
// ids of its nearest column siblings. A rollback anchors on the siblings
// since other mutations may shift array indexes while a request is in flight.
type placement struct {
	columnID string
	order    int
	index    int
	next     string
	prev     string
}

func placementOf(tasks []domain.Task, idx int) placement {
	next, prev := siblingsAround(tasks, idx)
	return placement{
		columnID: tasks[idx].ColumnID,
		order:    tasks[idx].Order,
		index:    idx,
		next:     next,
		prev:     prev,
	}
}

// moveTask implements MoveTaskToColumn. A non-nil undo replaces the
// pre-call placement as the rollback target.
func (s *Store) moveTask(ctx context.Context, id, columnID string, order *int, undo *placement) error {
	mv := domain.MoveRequest{ColumnID: &columnID, Order: order}
	if err := mv.Validate(); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	idx := indexOfTask(s.tasks, id)
	if idx < 0 {
		s.mu.Unlock()
		err := domain.NotFound("task", id)
		s.fail(err)
		return err
	}
	if indexOfColumn(s.columns, columnID) < 0 {
		s.mu.Unlock()
		err := &domain.ValidationError{Field: "column_id", Reason: "is not a column of the loaded project"}
		s.fail(err)
		return err
	}
	if undo == nil {
		at := placementOf(s.tasks, idx)
		undo = &at
	}
	s.tasks = placeTask(s.tasks, idx, columnID, order)
	gen := s.gen
	s.mu.Unlock()
	s.notify()

	if _, err := s.api.MoveTask(ctx, id, mv); err != nil {
		s.mu.Lock()
		restored := false
		if gen == s.gen {
			if i := indexOfTask(s.tasks, id); i >= 0 {
				t := s.tasks[i]
				t.ColumnID = undo.columnID
				t.Order = undo.order
				rest := append(s.tasks[:i:i], s.tasks[i+1:]...)
				at := restoreIndex(rest, undo.columnID, undo.next, undo.prev, undo.index)
				s.tasks = insertTask(rest, at, t)
				restored = true
			}
		}
		perr := &domain.PersistError{Op: "move task", TaskID: id, Err: err}
		s.err = perr
		s.mu.Unlock()
		s.logFailure(perr, restored)
		s.notify()
		return perr
	}

	s.logger.WithFields(log.Fields{"task_id": id, "column_id": columnID}).Debug("task move persisted")
	return nil
}

func (s *Store) editTasks(fn func([]domain.Task) []domain.Task) {
	s.mu.Lock()
	s.tasks = fn(cloneTasks(s.tasks))
	s.mu.Unlock()
	s.notify()
}

func (s *Store) editColumns(fn func([]domain.Column) []domain.Column) {
	s.mu.Lock()
	s.columns = fn(cloneColumns(s.columns))
	s.mu.Unlock()
	s.notify()
}

// positionInColumn is the task's placement plus its index among its column
// siblings.
func (s *Store) positionInColumn(id string) (placement, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOfTask(s.tasks, id)
	if i < 0 {
		return placement{}, 0, false
	}
	at := placementOf(s.tasks, i)
	pos := 0
	for _, t := range s.tasks[:i] {
		if t.ColumnID == at.columnID {
			pos++
		}
	}
	return at, pos, true
}

func (s *Store) columnIndex(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOfColumn(s.columns, id)
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.notify()
}

func (s *Store) logFailure(err *domain.PersistError, rolledBack bool) {
	s.logger.WithFields(log.Fields{
		"op":          err.Op,
		"task_id":     err.TaskID,
		"rolled_back": rolledBack,
		"error":       err.Err.Error(),
	}).Warn("persist failed")
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange(s.State())
	}
}
