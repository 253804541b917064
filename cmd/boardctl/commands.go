package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/board"
	"taskboard/domain"
)

func projectsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := a.api.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return renderProjects(a.out, projects)
		},
	}
}

func projectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	var description, due string
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project with the default columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.NewProject{Title: args[0], Description: description}
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				in.DueDate = d
			}
			if err := in.Validate(); err != nil {
				return err
			}
			detail, err := a.api.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created project %s\n", detail.ID)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "project description")
	create.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")

	rm := &cobra.Command{
		Use:   "rm <project>",
		Short: "Delete a project with its columns and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted project %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, rm)
	return cmd
}

func boardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "board <project>",
		Short: "Show a project's columns and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderBoard(a.out, store.State())
		},
	}
}

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, edit, move and remove tasks",
	}
	cmd.AddCommand(taskAddCmd(a), taskEditCmd(a), taskMoveCmd(a), taskDragCmd(a), taskRmCmd(a))
	return cmd
}

func taskAddCmd(a *app) *cobra.Command {
	var priority, due, assignee string
	cmd := &cobra.Command{
		Use:   "add <project> <column> <content>",
		Short: "Append a task to a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := domain.ParsePriority(priority)
			if err != nil {
				return err
			}
			store, err := a.loadBoard(ctx, args[0])
			if err != nil {
				return err
			}
			col, err := resolveColumn(store, args[1])
			if err != nil {
				return err
			}
			in := domain.NewTask{Content: args[2], Priority: p, ColumnID: col.ID, AssigneeID: assignee}
			if due != "" {
				if in.DueDate, err = parseDate(due); err != nil {
					return err
				}
			}
			task, err := store.AddTask(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added %s to %s\n", task.ID, col.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Low, Medium or High (default Medium)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id")
	return cmd
}

func taskEditCmd(a *app) *cobra.Command {
	var content, priority, due, assignee string
	cmd := &cobra.Command{
		Use:   "edit <project> <task>",
		Short: "Change a task's fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()
			var patch domain.TaskPatch
			if flags.Changed("content") {
				patch.Content = &content
			}
			if flags.Changed("priority") {
				p, err := domain.ParsePriority(priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if flags.Changed("assignee") {
				patch.AssigneeID = &assignee
			}
			if flags.Changed("due") {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				patch.DueDate = d
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to change: pass --content, --priority, --due or --assignee")
			}

			store, err := a.loadBoard(ctx, args[0])
			if err != nil {
				return err
			}
			task, err := store.UpdateTask(ctx, args[1], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "updated %s\n", task.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Low, Medium or High")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id, empty to unassign")
	return cmd
}

func taskMoveCmd(a *app) *cobra.Command {
	var order int
	cmd := &cobra.Command{
		Use:   "move <project> <task> <column>",
		Short: "Move a task to a column, optionally at a position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.loadBoard(ctx, args[0])
			if err != nil {
				return err
			}
			task, err := resolveTask(store, args[1])
			if err != nil {
				return err
			}
			col, err := resolveColumn(store, args[2])
			if err != nil {
				return err
			}
			var at *int
			if cmd.Flags().Changed("order") {
				at = &order
			}
			if err := store.MoveTaskToColumn(ctx, task.ID, col.ID, at); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "moved %s to %s\n", task.ID, col.Title)
			return nil
		},
	}
	cmd.Flags().IntVar(&order, "order", 0, "position within the column, 0 is the top")
	return cmd
}

// taskDragCmd replays a pointer drag of a task onto a target, the way a board
// view would, and persists the result.
func taskDragCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drag <project> <task> <target>",
		Short: "Drag a task onto task:<id> or column:<id|title>",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.loadBoard(ctx, args[0])
			if err != nil {
				return err
			}
			task, err := resolveTask(store, args[1])
			if err != nil {
				return err
			}
			target, err := resolveTarget(store, args[2])
			if err != nil {
				return err
			}

			ctrl := board.NewController(store)
			ctrl.PointerDown(board.TaskRef(task.ID), board.Point{})
			if !ctrl.PointerMove(board.Point{X: board.DefaultActivationDistance}) {
				return fmt.Errorf("could not start dragging %s", task.ID)
			}
			ctrl.DragOver(target)
			outcome, err := ctrl.Drop(ctx, &target)
			if err != nil {
				return err
			}
			if outcome == board.DropNoop {
				fmt.Fprintf(a.out, "%s stays where it is\n", task.ID)
				return nil
			}
			moved, _ := store.Task(task.ID)
			pos := 0
			for _, t := range store.TasksInColumn(moved.ColumnID) {
				if t.ID == moved.ID {
					break
				}
				pos++
			}
			fmt.Fprintf(a.out, "moved %s to %s at %d\n", moved.ID, moved.ColumnID, pos)
			return nil
		},
	}
}

func taskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project> <task>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.loadBoard(ctx, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteTask(ctx, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", args[1])
			return nil
		},
	}
}

func columnsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Manage a project's columns",
	}

	add := &cobra.Command{
		Use:   "add <project> <title>",
		Short: "Append a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.api.CreateColumn(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added column %s\n", col.ID)
			return nil
		},
	}

	reorder := &cobra.Command{
		Use:   "reorder <project> <column>...",
		Short: "Persist a new left to right column order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.loadBoard(ctx, args[0])
			if err != nil {
				return err
			}
			orders := make([]domain.ColumnOrder, 0, len(args)-1)
			seen := make(map[string]bool, len(args)-1)
			for i, ref := range args[1:] {
				col, err := resolveColumn(store, ref)
				if err != nil {
					return err
				}
				if seen[col.ID] {
					return fmt.Errorf("column %q listed twice", ref)
				}
				seen[col.ID] = true
				orders = append(orders, domain.ColumnOrder{ID: col.ID, Order: i})
			}
			if err := a.api.ReorderColumns(ctx, orders); err != nil {
				return err
			}
			if err := store.LoadProject(ctx, args[0]); err != nil {
				return err
			}
			return renderColumns(a.out, store.Columns())
		},
	}

	rename := &cobra.Command{
		Use:   "rename <column-id> <title>",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.api.UpdateColumn(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "renamed %s to %s\n", col.ID, col.Title)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <column-id>",
		Short: "Delete a column and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteColumn(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted column %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, reorder, rename, rm)
	return cmd
}
