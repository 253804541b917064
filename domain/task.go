package domain

import (
	"strings"
	"time"
)

// Priority ranks a task. The zero value is treated as Medium by the gateway.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// DefaultPriority is assigned to tasks created without an explicit priority.
const DefaultPriority = PriorityMedium

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority accepts any casing of Low, Medium or High. An empty string
// yields DefaultPriority.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPriority, nil
	}
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "priority", Reason: "must be Low, Medium or High"}
}

// Task is a single card on a project board.
type Task struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	Priority     Priority   `json:"priority"`
	ColumnID     string     `json:"column_id"`
	AssigneeID   string     `json:"assignee_id,omitempty"`
	AssigneeName string     `json:"assignee_name,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Order        int        `json:"order"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

// NewTask is the create request for a task. The server assigns ID and Order.
type NewTask struct {
	Content    string     `json:"content"`
	Priority   Priority   `json:"priority,omitempty"`
	ColumnID   string     `json:"column_id"`
	AssigneeID string     `json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// Validate checks the fields a client can verify before any network call.
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if strings.TrimSpace(n.ColumnID) == "" {
		return &ValidationError{Field: "column_id", Reason: "is required"}
	}
	if n.Priority != "" && !n.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be Low, Medium or High"}
	}
	return nil
}

// TaskPatch carries the optional task fields of an edit. Nil means unchanged.
type TaskPatch struct {
	Content    *string    `json:"content,omitempty"`
	Priority   *Priority  `json:"priority,omitempty"`
	AssigneeID *string    `json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Content == nil && p.Priority == nil && p.AssigneeID == nil && p.DueDate == nil
}

// Validate rejects blank content and unknown priorities.
func (p TaskPatch) Validate() error {
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be Low, Medium or High"}
	}
	return nil
}

// Apply writes the set fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssigneeID != nil {
		if *p.AssigneeID != t.AssigneeID {
			t.AssigneeName = ""
		}
		t.AssigneeID = *p.AssigneeID
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
}

// MoveRequest reassigns a task to a column and/or ordinal. At least one
// field must be set.
type MoveRequest struct {
	ColumnID *string `json:"column_id,omitempty"`
	Order    *int    `json:"order,omitempty"`
}

func (m MoveRequest) Validate() error {
	if m.ColumnID == nil && m.Order == nil {
		return &ValidationError{Field: "column_id", Reason: "column_id or order is required"}
	}
	if m.ColumnID != nil && strings.TrimSpace(*m.ColumnID) == "" {
		return &ValidationError{Field: "column_id", Reason: "must not be empty"}
	}
	if m.Order != nil && *m.Order < 0 {
		return &ValidationError{Field: "order", Reason: "must not be negative"}
	}
	return nil
}

// TaskFilter narrows task listings. Empty fields match everything.
type TaskFilter struct {
	ColumnID   string
	AssigneeID string
}
