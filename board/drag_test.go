package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/domain"
)

// dragDetail has one task in doing followed by three in todo, so the moving
// task sits after its drop target in render order.
func dragDetail() domain.ProjectDetail {
	d := sampleDetail()
	d.Tasks = []domain.Task{
		{ID: "b1", ColumnID: "doing", Order: 0},
		{ID: "a1", ColumnID: "todo", Order: 0},
		{ID: "a2", ColumnID: "todo", Order: 1},
		{ID: "T", ColumnID: "todo", Order: 2},
	}
	return d
}

func startDrag(t *testing.T, c *Controller, e Entity) {
	t.Helper()
	c.PointerDown(e, Point{X: 100, Y: 100})
	require.True(t, c.PointerMove(Point{X: 100, Y: 120}))
	require.Equal(t, PhaseDragging, c.Phase())
}

func TestShortGestureIsAClick(t *testing.T) {
	api := newFakeAPI(dragDetail())
	s := loadedStore(t, api)
	c := NewController(s)

	c.PointerDown(TaskRef("T"), Point{X: 10, Y: 10})
	assert.False(t, c.PointerMove(Point{X: 16, Y: 17}))
	assert.Equal(t, PhaseIdle, c.Phase())

	c.DragOver(TaskRef("b1"))
	out, err := c.Drop(context.Background(), &Entity{Kind: KindTask, ID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, DropNoop, out)
	assert.Equal(t, []string{"b1", "a1", "a2", "T"}, ids(s.Tasks()))
	assert.Zero(t, api.count("move"))
}

func TestActivationDistanceOption(t *testing.T) {
	s := loadedStore(t, newFakeAPI(dragDetail()))
	c := NewController(s, WithActivationDistance(0))

	c.PointerDown(TaskRef("a1"), Point{})
	assert.True(t, c.PointerMove(Point{}))
	e, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, TaskRef("a1"), e)
}

func TestColumnDragReordersWithoutPersisting(t *testing.T) {
	api := newFakeAPI(dragDetail())
	s := loadedStore(t, api)
	c := NewController(s)

	startDrag(t, c, ColumnRef("done"))
	c.DragOver(ColumnRef("todo"))
	assert.Equal(t, PhaseDraggingOver, c.Phase())
	assert.Equal(t, []string{"done", "todo", "doing"}, columnIDs(s.Columns()))

	target := ColumnRef("todo")
	out, err := c.Drop(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, DropColumnReordered, out)
	assert.Equal(t, []string{"done", "todo", "doing"}, columnIDs(s.Columns()))
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Zero(t, api.count("move")+api.count("update"))
}

func TestColumnDroppedOnItselfIsNoop(t *testing.T) {
	s := loadedStore(t, newFakeAPI(dragDetail()))
	c := NewController(s)

	startDrag(t, c, ColumnRef("doing"))
	target := ColumnRef("doing")
	out, err := c.Drop(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, DropNoop, out)
	assert.Equal(t, []string{"todo", "doing", "done"}, columnIDs(s.Columns()))
}

func TestTaskDragAcrossColumnsPersistsPreview(t *testing.T) {
	api := newFakeAPI(dragDetail())
	s := loadedStore(t, api)
	c := NewController(s)

	var phase Phase
	var inFlight domain.Task
	var doing []string
	api.onMove = func(id string, _ domain.MoveRequest) {
		phase = c.Phase()
		inFlight, _ = s.Task(id)
		doing = ids(s.TasksInColumn("doing"))
	}

	startDrag(t, c, TaskRef("T"))
	c.DragOver(TaskRef("b1"))

	got, _ := s.Task("T")
	assert.Equal(t, "doing", got.ColumnID)
	assert.Equal(t, []string{"T", "b1"}, ids(s.TasksInColumn("doing")))

	target := TaskRef("b1")
	out, err := c.Drop(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, DropTaskMoved, out)

	assert.Equal(t, PhaseDropped, phase)
	assert.Equal(t, "doing", inFlight.ColumnID)
	assert.Equal(t, []string{"T", "b1"}, doing)

	require.Len(t, api.moves, 1)
	assert.Equal(t, "doing", *api.moves[0].ColumnID)
	assert.Equal(t, 0, *api.moves[0].Order)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestTaskDroppedOnColumnJoinsItsEnd(t *testing.T) {
	api := newFakeAPI(dragDetail())
	s := loadedStore(t, api)
	c := NewController(s)

	startDrag(t, c, TaskRef("a1"))
	target := ColumnRef("doing")
	out, err := c.Drop(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, DropTaskMoved, out)

	assert.Equal(t, []string{"b1", "a1"}, ids(s.TasksInColumn("doing")))
	require.Len(t, api.moves, 1)
	assert.Equal(t, 1, *api.moves[0].Order)
}

func TestTaskDroppedOnEmptyColumn(t *testing.T) {
	api := newFakeAPI(dragDetail())
	s := loadedStore(t, api)
	c := NewController(s)

	startDrag(t, c, TaskRef("a2"))
	c.DragOver(ColumnRef("done"))
	target := ColumnRef("done")
	out, err := c.Drop(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, DropTaskMoved, out)

	got, _ := s.Task("a2")
	assert.Equal(t, "done", got.ColumnID)
	assert.Equal(t, 0, got.Order)
}

func TestTaskDroppedInPlaceIsNotPersisted(t *testing.T) {
	api := newFakeAPI(dragDetail())
	s := loadedStore(t, api)
	c := NewController(s)

	startDrag(t, c, TaskRef("a1"))
	c.DragOver(TaskRef("a1"))
	target := TaskRef("a1")
	out, err := c.Drop(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, DropNoop, out)

	startDrag(t, c, TaskRef("a1"))
	target = ColumnRef("todo")
	out, err = c.Drop(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, DropNoop, out)

	assert.Zero(t, api.count("move"))
	assert.Equal(t, []string{"b1", "a1", "a2", "T"}, ids(s.Tasks()))
}

func TestDropWithoutTargetKeepsPreview(t *testing.T) {
	api := newFakeAPI(dragDetail())
	s := loadedStore(t, api)
	c := NewController(s)

	startDrag(t, c, TaskRef("T"))
	c.DragOver(TaskRef("b1"))
	out, err := c.Drop(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, DropNoop, out)

	got, _ := s.Task("T")
	assert.Equal(t, "doing", got.ColumnID)
	assert.Zero(t, api.count("move"))
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestFailedTaskDropReturnsToStart(t *testing.T) {
	api := newFakeAPI(dragDetail())
	api.moveErr = errBoom
	s := loadedStore(t, api)
	before := s.Tasks()
	c := NewController(s)

	startDrag(t, c, TaskRef("T"))
	c.DragOver(TaskRef("b1"))
	target := TaskRef("b1")
	out, err := c.Drop(context.Background(), &target)
	assert.Equal(t, DropTaskMoved, out)

	var perr *domain.PersistError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, before, s.Tasks())
	got, _ := s.Task("T")
	assert.Equal(t, "todo", got.ColumnID)
	assert.Equal(t, 2, got.Order)
	assert.Equal(t, perr, s.Err())
}

func TestFailedTaskDropSurvivesConcurrentDelete(t *testing.T) {
	api := newFakeAPI(dragDetail())
	api.moveErr = errBoom
	s := loadedStore(t, api)
	c := NewController(s)

	api.onMove = func(string, domain.MoveRequest) {
		require.NoError(t, s.DeleteTask(context.Background(), "b1"))
	}

	startDrag(t, c, TaskRef("a1"))
	target := ColumnRef("done")
	c.DragOver(target)
	out, err := c.Drop(context.Background(), &target)
	assert.Equal(t, DropTaskMoved, out)
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{"a1", "a2", "T"}, ids(s.Tasks()))
	assert.Empty(t, s.TasksInColumn("done"))
}

func TestRepeatedHoverDoesNotOscillate(t *testing.T) {
	s := loadedStore(t, newFakeAPI(dragDetail()))
	c := NewController(s)

	startDrag(t, c, TaskRef("T"))
	c.DragOver(TaskRef("b1"))
	first := ids(s.Tasks())
	c.DragOver(TaskRef("b1"))
	c.DragOver(TaskRef("b1"))
	assert.Equal(t, first, ids(s.Tasks()))
}

func TestPointerDownIgnoredWhileDragging(t *testing.T) {
	s := loadedStore(t, newFakeAPI(dragDetail()))
	c := NewController(s)

	startDrag(t, c, TaskRef("T"))
	c.PointerDown(TaskRef("a1"), Point{})
	e, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "T", e.ID)

	c.Cancel()
	_, ok = c.Active()
	assert.False(t, ok)
}

func TestDragOfUnknownEntityNeverStarts(t *testing.T) {
	s := loadedStore(t, newFakeAPI(dragDetail()))
	c := NewController(s)

	c.PointerDown(TaskRef("ghost"), Point{})
	assert.False(t, c.PointerMove(Point{X: 50}))
	assert.Equal(t, PhaseIdle, c.Phase())
}
