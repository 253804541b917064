package domain

// DefaultColumnTitles are created, in this order, with every new project.
var DefaultColumnTitles = []string{"To Do", "In Progress", "Review", "Done"}

// Column is an ordered bucket of tasks within a project.
type Column struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	ProjectID string `json:"project_id,omitempty"`
}

// ColumnOrder assigns a persisted ordinal to a column.
type ColumnOrder struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}
