package board

import "taskboard/domain"

func indexOfTask(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfColumn(cols []domain.Column, id string) int {
	for i := range cols {
		if cols[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return nil
	}
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneColumns(cols []domain.Column) []domain.Column {
	if cols == nil {
		return nil
	}
	return append([]domain.Column(nil), cols...)
}

// restoreFields copies every field an edit can change from before onto t.
func restoreFields(t *domain.Task, before domain.Task) {
	t.Content = before.Content
	t.Priority = before.Priority
	t.AssigneeID = before.AssigneeID
	t.AssigneeName = before.AssigneeName
	t.DueDate = before.Clone().DueDate
}

func insertTask(tasks []domain.Task, at int, t domain.Task) []domain.Task {
	if at < 0 {
		at = 0
	}
	if at > len(tasks) {
		at = len(tasks)
	}
	out := make([]domain.Task, 0, len(tasks)+1)
	out = append(out, tasks[:at]...)
	out = append(out, t)
	return append(out, tasks[at:]...)
}

// siblingsAround returns the ids of the nearest tasks of the same column
// after and before tasks[idx]. Either may be empty.
func siblingsAround(tasks []domain.Task, idx int) (next, prev string) {
	col := tasks[idx].ColumnID
	for i := idx + 1; i < len(tasks); i++ {
		if tasks[i].ColumnID == col {
			next = tasks[i].ID
			break
		}
	}
	for i := idx - 1; i >= 0; i-- {
		if tasks[i].ColumnID == col {
			prev = tasks[i].ID
			break
		}
	}
	return next, prev
}

// restoreIndex picks where a removed task goes back: before its former next
// sibling, else after its former previous sibling, else after the last task
// of its column, else its old array index.
func restoreIndex(tasks []domain.Task, col, next, prev string, old int) int {
	if i := indexOfTask(tasks, next); i >= 0 && tasks[i].ColumnID == col {
		return i
	}
	if i := indexOfTask(tasks, prev); i >= 0 && tasks[i].ColumnID == col {
		return i + 1
	}
	for i := len(tasks) - 1; i >= 0; i-- {
		if tasks[i].ColumnID == col {
			return i + 1
		}
	}
	return min(old, len(tasks))
}

// placeTask reassigns tasks[idx] to col. With a nil order the task keeps its
// array position. Otherwise it is set to *order and positioned before the
// task currently at that position within col, or after the column's last
// task when order is past the end.
func placeTask(tasks []domain.Task, idx int, col string, order *int) []domain.Task {
	out := cloneTasks(tasks)
	t := out[idx]
	t.ColumnID = col
	if order == nil {
		out[idx] = t
		return out
	}
	t.Order = *order
	rest := append(out[:idx:idx], out[idx+1:]...)

	at, seen, last := -1, 0, -1
	for i := range rest {
		if rest[i].ColumnID != col {
			continue
		}
		if seen == *order {
			at = i
			break
		}
		seen++
		last = i
	}
	switch {
	case at >= 0:
	case last >= 0:
		at = last + 1
	default:
		at = min(idx, len(rest))
	}
	return insertTask(rest, at, t)
}
