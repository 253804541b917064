package storage

import (
	"context"
	"database/sql"
	"strings"

	"taskboard/domain"
)

const taskSelect = `
	SELECT t.id, t.content, t.priority, t.column_id, COALESCE(t.assignee_id, ''),
		COALESCE(u.name, ''), t.due_date, t."order"
	FROM tasks t
	LEFT JOIN users u ON u.id = t.assignee_id`

func scanTask(row scanner) (domain.Task, error) {
	var (
		t        domain.Task
		priority string
		due      sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Content, &priority, &t.ColumnID, &t.AssigneeID,
		&t.AssigneeName, &due, &t.Order); err != nil {
		return domain.Task{}, err
	}
	t.Priority = domain.Priority(priority)
	t.DueDate = parseTime(due)
	return t, nil
}

func (s *Storage) queryTasks(ctx context.Context, where string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskSelect+where+` ORDER BY t."order", t.rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListTasks returns tasks matching filter by order.
func (s *Storage) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	var where []string
	var args []any
	if filter.ColumnID != "" {
		where, args = append(where, "t.column_id = ?"), append(args, filter.ColumnID)
	}
	if filter.AssigneeID != "" {
		where, args = append(where, "t.assignee_id = ?"), append(args, filter.AssigneeID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	return s.queryTasks(ctx, clause, args...)
}

// GetTask returns one task.
func (s *Storage) GetTask(ctx context.Context, id string) (domain.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id))
	if noRows(err) {
		return domain.Task{}, domain.NotFound("task", id)
	}
	return t, err
}

// CreateTask appends a task after the last one of its column.
func (s *Storage) CreateTask(ctx context.Context, in domain.NewTask) (domain.Task, error) {
	if in.Priority == "" {
		in.Priority = domain.DefaultPriority
	}
	if err := in.Validate(); err != nil {
		return domain.Task{}, err
	}

	id := newID("task")
	now := s.timestamp()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM columns WHERE id = ?`, in.ColumnID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.NotFound("column", in.ColumnID)
		}
		var order int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX("order"), -1) + 1 FROM tasks WHERE column_id = ?`, in.ColumnID).Scan(&order); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, content, priority, column_id, assignee_id, due_date, "order", created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, strings.TrimSpace(in.Content), string(in.Priority), in.ColumnID,
			nullIfEmpty(in.AssigneeID), formatTime(in.DueDate), order, now, now)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UpdateTask applies the set fields of patch. An empty assignee clears it.
func (s *Storage) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if patch.Empty() {
		return domain.Task{}, &domain.ValidationError{Reason: "No valid fields to update"}
	}
	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}

	var set []string
	var args []any
	if patch.Content != nil {
		set, args = append(set, "content = ?"), append(args, strings.TrimSpace(*patch.Content))
	}
	if patch.Priority != nil {
		set, args = append(set, "priority = ?"), append(args, string(*patch.Priority))
	}
	if patch.AssigneeID != nil {
		set, args = append(set, "assignee_id = ?"), append(args, nullIfEmpty(*patch.AssigneeID))
	}
	if patch.DueDate != nil {
		set, args = append(set, "due_date = ?"), append(args, formatTime(patch.DueDate))
	}
	set, args = append(set, "updated_at = ?"), append(args, s.timestamp(), id)

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Task{}, err
	}
	if err := affectedOne(res, domain.NotFound("task", id)); err != nil {
		return domain.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// MoveTask sets a task's column and/or order. The target column has to be
// part of the same project.
func (s *Storage) MoveTask(ctx context.Context, id string, mv domain.MoveRequest) (domain.Task, error) {
	if err := mv.Validate(); err != nil {
		return domain.Task{}, err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var project string
		err := tx.QueryRowContext(ctx, `
			SELECT c.project_id FROM tasks t JOIN columns c ON c.id = t.column_id
			WHERE t.id = ?`, id).Scan(&project)
		if noRows(err) {
			return domain.NotFound("task", id)
		}
		if err != nil {
			return err
		}

		var set []string
		var args []any
		if mv.ColumnID != nil {
			var target string
			err := tx.QueryRowContext(ctx, `SELECT project_id FROM columns WHERE id = ?`, *mv.ColumnID).Scan(&target)
			if noRows(err) {
				return domain.NotFound("column", *mv.ColumnID)
			}
			if err != nil {
				return err
			}
			if target != project {
				return &domain.ValidationError{Field: "column_id", Reason: "belongs to another project"}
			}
			set, args = append(set, "column_id = ?"), append(args, *mv.ColumnID)
		}
		if mv.Order != nil {
			set, args = append(set, `"order" = ?`), append(args, *mv.Order)
		}
		set, args = append(set, "updated_at = ?"), append(args, s.timestamp(), id)
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, domain.NotFound("task", id))
}
