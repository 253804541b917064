package domain

import (
	"strings"
	"time"
)

type ProjectStatus string

const (
	StatusPlanning   ProjectStatus = "Planning"
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
	StatusOnHold     ProjectStatus = "On Hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Project is the board container.
type Project struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Status        ProjectStatus `json:"status"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Progress      int           `json:"progress"`
	CreatedBy     string        `json:"created_by,omitempty"`
	CreatedByName string        `json:"created_by_name,omitempty"`
	MemberCount   int           `json:"member_count,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
}

// Member is a user participating in a project.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"`
}

// ProjectDetail is a project together with its board contents.
type ProjectDetail struct {
	Project
	Columns []Column `json:"columns"`
	Tasks   []Task   `json:"tasks"`
	Members []Member `json:"members"`
}

// NewProject is the create request for a project.
type NewProject struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (n NewProject) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	return nil
}

// ProjectPatch carries the optional project fields of an edit.
type ProjectPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Progress    *int           `json:"progress,omitempty"`
}

func (p ProjectPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil && p.Progress == nil
}

func (p ProjectPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown project status"}
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return &ValidationError{Field: "progress", Reason: "must be between 0 and 100"}
	}
	return nil
}
