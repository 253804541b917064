package storage

import (
	"context"
	"database/sql"
	"strings"

	"taskboard/domain"
)

// ListColumns returns the columns of a project by order.
func (s *Storage) ListColumns(ctx context.Context, projectID string) ([]domain.Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, "order", project_id FROM columns WHERE project_id = ? ORDER BY "order", rowid`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []domain.Column{}
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.ID, &c.Title, &c.Order, &c.ProjectID); err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func (s *Storage) getColumn(ctx context.Context, id string) (domain.Column, error) {
	var c domain.Column
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, "order", project_id FROM columns WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.Order, &c.ProjectID)
	if noRows(err) {
		return domain.Column{}, domain.NotFound("column", id)
	}
	return c, err
}

// CreateColumn appends a column after the project's last one.
func (s *Storage) CreateColumn(ctx context.Context, projectID, title string) (domain.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Column{}, &domain.ValidationError{Field: "title", Reason: "is required"}
	}
	if projectID == "" {
		return domain.Column{}, &domain.ValidationError{Field: "project_id", Reason: "is required"}
	}

	c := domain.Column{ID: newID("col"), Title: title, ProjectID: projectID}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, projectID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.NotFound("project", projectID)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX("order"), -1) + 1 FROM columns WHERE project_id = ?`, projectID).Scan(&c.Order); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO columns (id, title, "order", project_id) VALUES (?, ?, ?, ?)`,
			c.ID, c.Title, c.Order, c.ProjectID)
		return err
	})
	if err != nil {
		return domain.Column{}, err
	}
	return c, nil
}

// UpdateColumn renames a column.
func (s *Storage) UpdateColumn(ctx context.Context, id, title string) (domain.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Column{}, &domain.ValidationError{Field: "title", Reason: "is required"}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE columns SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return domain.Column{}, err
	}
	if err := affectedOne(res, domain.NotFound("column", id)); err != nil {
		return domain.Column{}, err
	}
	return s.getColumn(ctx, id)
}

// ReorderColumns writes the given ordinals in one transaction. Unknown ids
// are skipped.
func (s *Storage) ReorderColumns(ctx context.Context, orders []domain.ColumnOrder) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, o := range orders {
			if _, err := tx.ExecContext(ctx, `UPDATE columns SET "order" = ? WHERE id = ?`, o.Order, o.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteColumn removes a column and its tasks.
func (s *Storage) DeleteColumn(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM columns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, domain.NotFound("column", id))
}
