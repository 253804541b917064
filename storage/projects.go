package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskboard/domain"
)

const projectSelect = `
	SELECT p.id, p.title, COALESCE(p.description, ''), p.status, p.due_date, p.progress,
		COALESCE(p.created_by, ''), COALESCE(u.name, ''),
		(SELECT COUNT(*) FROM project_members m WHERE m.project_id = p.id),
		p.created_at
	FROM projects p
	LEFT JOIN users u ON u.id = p.created_by`

func scanProject(row scanner) (domain.Project, error) {
	var (
		p              domain.Project
		status         string
		due, createdAt sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &status, &due, &p.Progress,
		&p.CreatedBy, &p.CreatedByName, &p.MemberCount, &createdAt); err != nil {
		return domain.Project{}, err
	}
	p.Status = domain.ProjectStatus(status)
	p.DueDate = parseTime(due)
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// ListProjects returns every project, newest first.
func (s *Storage) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, projectSelect+` ORDER BY p.created_at DESC, p.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject returns a project with its columns, their tasks and its members.
func (s *Storage) GetProject(ctx context.Context, id string) (domain.ProjectDetail, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
	if noRows(err) {
		return domain.ProjectDetail{}, domain.NotFound("project", id)
	}
	if err != nil {
		return domain.ProjectDetail{}, err
	}

	detail := domain.ProjectDetail{Project: p}
	if detail.Columns, err = s.ListColumns(ctx, id); err != nil {
		return domain.ProjectDetail{}, err
	}
	if detail.Tasks, err = s.queryTasks(ctx,
		` WHERE t.column_id IN (SELECT id FROM columns WHERE project_id = ?)`, id); err != nil {
		return domain.ProjectDetail{}, err
	}
	if detail.Members, err = s.listMembers(ctx, id); err != nil {
		return domain.ProjectDetail{}, err
	}
	return detail, nil
}

func (s *Storage) listMembers(ctx context.Context, projectID string) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, COALESCE(u.avatar, ''), m.role
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = ?
		ORDER BY u.name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Avatar, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateProject stores a project owned by owner together with the default
// columns.
func (s *Storage) CreateProject(ctx context.Context, owner domain.User, in domain.NewProject) (domain.ProjectDetail, error) {
	if err := in.Validate(); err != nil {
		return domain.ProjectDetail{}, err
	}
	id := newID("proj")
	now := s.timestamp()
	columns := make([]domain.Column, len(domain.DefaultColumnTitles))
	for i, title := range domain.DefaultColumnTitles {
		columns[i] = domain.Column{ID: newID("col"), Title: title, Order: i, ProjectID: id}
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, owner, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, title, description, due_date, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, strings.TrimSpace(in.Title), nullIfEmpty(in.Description), formatTime(in.DueDate), owner.ID, now, now); err != nil {
			return err
		}
		for _, c := range columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO columns (id, title, "order", project_id) VALUES (?, ?, ?, ?)`,
				c.ID, c.Title, c.Order, c.ProjectID); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id, role) VALUES (?, ?, 'owner')`, id, owner.ID)
		return err
	})
	if err != nil {
		return domain.ProjectDetail{}, fmt.Errorf("create project: %w", err)
	}
	return s.GetProject(ctx, id)
}

// UpdateProject applies the set fields of patch.
func (s *Storage) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	if patch.Empty() {
		return domain.Project{}, &domain.ValidationError{Reason: "No valid fields to update"}
	}
	if err := patch.Validate(); err != nil {
		return domain.Project{}, err
	}

	var set []string
	var args []any
	if patch.Title != nil {
		set, args = append(set, "title = ?"), append(args, strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		set, args = append(set, "description = ?"), append(args, *patch.Description)
	}
	if patch.Status != nil {
		set, args = append(set, "status = ?"), append(args, string(*patch.Status))
	}
	if patch.DueDate != nil {
		set, args = append(set, "due_date = ?"), append(args, formatTime(patch.DueDate))
	}
	if patch.Progress != nil {
		set, args = append(set, "progress = ?"), append(args, *patch.Progress)
	}
	set, args = append(set, "updated_at = ?"), append(args, s.timestamp(), id)

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Project{}, err
	}
	if err := affectedOne(res, domain.NotFound("project", id)); err != nil {
		return domain.Project{}, err
	}
	return scanProject(s.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
}

// DeleteProject removes a project with its columns, tasks and memberships.
func (s *Storage) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, domain.NotFound("project", id))
}

// ProjectOfColumn returns the project a column belongs to.
func (s *Storage) ProjectOfColumn(ctx context.Context, columnID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT project_id FROM columns WHERE id = ?`, columnID).Scan(&id)
	if noRows(err) {
		return "", domain.NotFound("column", columnID)
	}
	return id, err
}

// ProjectOfTask returns the project a task belongs to.
func (s *Storage) ProjectOfTask(ctx context.Context, taskID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.project_id FROM tasks t JOIN columns c ON c.id = t.column_id
		WHERE t.id = ?`, taskID).Scan(&id)
	if noRows(err) {
		return "", domain.NotFound("task", taskID)
	}
	return id, err
}
