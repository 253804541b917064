package board

import (
	"context"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// DefaultActivationDistance is how far, in pixels, a pointer has to travel
// after going down on an entity before a drag starts. Shorter gestures are
// clicks.
const DefaultActivationDistance = 10

type Kind int

const (
	KindColumn Kind = iota + 1
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindTask:
		return "task"
	}
	return "unknown"
}

// Entity identifies the thing being dragged or hovered.
type Entity struct {
	Kind Kind
	ID   string
}

func ColumnRef(id string) Entity { return Entity{Kind: KindColumn, ID: id} }
func TaskRef(id string) Entity   { return Entity{Kind: KindTask, ID: id} }

type Point struct {
	X, Y float64
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseDraggingOver
	// PhaseDropped lasts while a drop is being finished and persisted.
	PhaseDropped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseDraggingOver:
		return "dragging_over"
	case PhaseDropped:
		return "dropped"
	}
	return "unknown"
}

// DropOutcome says what a drop did.
type DropOutcome int

const (
	DropNoop DropOutcome = iota
	DropColumnReordered
	DropTaskMoved
)

func (o DropOutcome) String() string {
	switch o {
	case DropNoop:
		return "noop"
	case DropColumnReordered:
		return "column_reordered"
	case DropTaskMoved:
		return "task_moved"
	}
	return "unknown"
}

// Controller turns pointer events into board rearrangements. While dragging,
// every hover rewrites the store immediately as a preview; only the drop of
// a task that ended up somewhere new is persisted.
//
// Events are expected from one UI loop. Drop blocks until the move has been
// persisted, so callers that must keep handling events run it on its own
// goroutine; pointer events arriving meanwhile are ignored.
type Controller struct {
	store     *Store
	threshold float64

	mu      sync.Mutex
	phase   Phase
	pending *Entity
	origin  Point
	active  Entity
	over    Entity

	startColumnIdx int
	startTask      placement
	startPos       int
}

type ControllerOption func(*Controller)

// WithActivationDistance overrides DefaultActivationDistance.
func WithActivationDistance(d float64) ControllerOption {
	return func(c *Controller) {
		if d >= 0 {
			c.threshold = d
		}
	}
}

func NewController(store *Store, opts ...ControllerOption) *Controller {
	c := &Controller{store: store, threshold: DefaultActivationDistance}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Active returns the dragged entity while a drag is in progress.
func (c *Controller) Active() (Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseIdle {
		return Entity{}, false
	}
	return c.active, true
}

// PointerDown arms a drag of e. Nothing moves until the pointer travels the
// activation distance.
func (c *Controller) PointerDown(e Entity, at Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseIdle {
		return
	}
	c.pending = &e
	c.origin = at
}

// PointerMove starts the armed drag once the pointer is far enough from
// where it went down. It reports whether a drag is in progress.
func (c *Controller) PointerMove(at Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseIdle {
		return true
	}
	if c.pending == nil {
		return false
	}
	if math.Hypot(at.X-c.origin.X, at.Y-c.origin.Y) < c.threshold {
		return false
	}
	return c.start()
}

func (c *Controller) start() bool {
	e := *c.pending
	c.pending = nil
	switch e.Kind {
	case KindColumn:
		idx := c.store.columnIndex(e.ID)
		if idx < 0 {
			return false
		}
		c.startColumnIdx = idx
	case KindTask:
		at, pos, ok := c.store.positionInColumn(e.ID)
		if !ok {
			return false
		}
		c.startTask, c.startPos = at, pos
	default:
		return false
	}
	c.active = e
	c.over = Entity{}
	c.phase = PhaseDragging
	c.store.logger.WithFields(log.Fields{"kind": e.Kind.String(), "id": e.ID}).Debug("drag started")
	return true
}

// DragOver previews dropping the active entity on target. Repeating the
// current target changes nothing.
func (c *Controller) DragOver(target Entity) {
	c.mu.Lock()
	if (c.phase != PhaseDragging && c.phase != PhaseDraggingOver) || target == c.over {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseDraggingOver
	c.over = target
	active := c.active
	c.mu.Unlock()
	c.preview(active, target)
}

// preview applies the hover rules:
//
//	column over column: the active column takes the target's index
//	task over task: the active task joins the target's column at its index
//	task over column: the active task joins the end of that column
//
// Hovering over itself or over an unknown entity changes nothing.
func (c *Controller) preview(active, target Entity) {
	if target == active {
		return
	}
	switch active.Kind {
	case KindColumn:
		if target.Kind == KindColumn {
			c.store.MoveColumn(active.ID, target.ID)
		}
	case KindTask:
		id := active.ID
		switch target.Kind {
		case KindTask:
			c.store.editTasks(func(tasks []domain.Task) []domain.Task {
				from, to := indexOfTask(tasks, id), indexOfTask(tasks, target.ID)
				if from < 0 || to < 0 {
					return tasks
				}
				tasks[from].ColumnID = tasks[to].ColumnID
				return domain.Move(tasks, from, to)
			})
		case KindColumn:
			c.store.editTasks(func(tasks []domain.Task) []domain.Task {
				from := indexOfTask(tasks, id)
				if from < 0 || tasks[from].ColumnID == target.ID {
					return tasks
				}
				last := -1
				for i := range tasks {
					if tasks[i].ColumnID == target.ID {
						last = i
					}
				}
				tasks[from].ColumnID = target.ID
				switch {
				case last < 0:
					return tasks
				case last > from:
					return domain.Move(tasks, from, last)
				default:
					return domain.Move(tasks, from, last+1)
				}
			})
		}
	}
}

// Drop finishes the gesture over target. A nil target ends the drag where
// the last preview left it without persisting anything. Releasing before the
// drag started is a click and does nothing.
//
// Column drops only rearrange memory. A task drop persists the task's column
// and its index within that column, but only when either differs from where
// the drag started. If persisting fails the task goes back to where the drag
// started.
func (c *Controller) Drop(ctx context.Context, target *Entity) (DropOutcome, error) {
	c.mu.Lock()
	if c.phase == PhaseIdle || c.phase == PhaseDropped {
		c.pending = nil
		c.mu.Unlock()
		return DropNoop, nil
	}
	active, over := c.active, c.over
	startIdx, start, startPos := c.startColumnIdx, c.startTask, c.startPos
	if target == nil {
		c.reset()
		c.mu.Unlock()
		return DropNoop, nil
	}
	c.phase = PhaseDropped
	c.mu.Unlock()

	if *target != over {
		c.preview(active, *target)
	}

	if active.Kind == KindColumn {
		moved := c.store.columnIndex(active.ID) != startIdx
		c.finish()
		if moved {
			return DropColumnReordered, nil
		}
		return DropNoop, nil
	}

	at, pos, ok := c.store.positionInColumn(active.ID)
	if !ok || (at.columnID == start.columnID && pos == startPos) {
		c.finish()
		return DropNoop, nil
	}

	c.store.logger.WithFields(log.Fields{"task_id": active.ID, "column_id": at.columnID, "order": pos}).Debug("task dropped")
	err := c.store.moveTask(ctx, active.ID, at.columnID, &pos, &start)
	c.finish()
	return DropTaskMoved, err
}

// Cancel abandons the gesture. Previews already applied stay in place.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseDropped {
		c.reset()
	}
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
}

func (c *Controller) reset() {
	c.phase = PhaseIdle
	c.pending = nil
	c.active = Entity{}
	c.over = Entity{}
}
