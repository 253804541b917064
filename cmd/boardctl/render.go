package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"taskboard/board"
	"taskboard/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderProjects(w io.Writer, projects []domain.Project) error {
	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, "no projects")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPROGRESS\tOWNER\tMEMBERS")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%s\t%d\n", p.ID, p.Title, p.Status, p.Progress, p.CreatedByName, p.MemberCount)
	}
	return tw.Flush()
}

func renderColumns(w io.Writer, cols []domain.Column) error {
	tw := newTable(w)
	for i, c := range cols {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i, c.Title, c.ID)
	}
	return tw.Flush()
}

// renderBoard prints every column followed by its tasks in board order.
func renderBoard(w io.Writer, st board.State) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\t%s\t%d%%\n", st.Project.Title, st.Project.Status, st.Project.Progress)
	for _, col := range st.Columns {
		var tasks []domain.Task
		for _, t := range st.Tasks {
			if t.ColumnID == col.ID {
				tasks = append(tasks, t)
			}
		}
		fmt.Fprintf(tw, "\n%s (%d)\t%s\n", col.Title, len(tasks), col.ID)
		for _, t := range tasks {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", t.ID, t.Priority, t.Content, assigneeLabel(t), dueLabel(t))
		}
	}
	return tw.Flush()
}

func assigneeLabel(t domain.Task) string {
	switch {
	case t.AssigneeName != "":
		return "@" + t.AssigneeName
	case t.AssigneeID != "":
		return "@" + t.AssigneeID
	}
	return ""
}

func dueLabel(t domain.Task) string {
	if t.DueDate == nil {
		return ""
	}
	return "due " + t.DueDate.Format(dateLayout)
}
