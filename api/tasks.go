package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

func listTasks(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := domain.TaskFilter{
			ColumnID:   c.QueryParam("column_id"),
			AssigneeID: c.QueryParam("assignee_id"),
		}
		tasks, err := store.ListTasks(c.Request().Context(), filter)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "", "Failed to fetch tasks")
		}
		return respond(c, http.StatusOK, tasks)
	}
}

func getTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := store.GetTask(c.Request().Context(), c.Param("id"))
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Task not found", "Failed to fetch task")
		}
		return respond(c, http.StatusOK, task)
	}
}

func createTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in domain.NewTask
		if err := decodeBody(c, &in); err != nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if in.Content == "" || in.ColumnID == "" {
			return respondError(c, http.StatusBadRequest, "Content and column_id are required")
		}
		task, err := store.CreateTask(c.Request().Context(), in)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Column not found", "Failed to create task")
		}
		return respond(c, http.StatusCreated, task)
	}
}

func updateTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if patch.Empty() {
			return respondError(c, http.StatusBadRequest, "No valid fields to update")
		}
		task, err := store.UpdateTask(c.Request().Context(), c.Param("id"), patch)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Task not found", "Failed to update task")
		}
		return respond(c, http.StatusOK, task)
	}
}

// moveTask applies a move at most once per Idempotency-Key. A replayed key
// answers with the task as it is now; a failed move releases the key.
func moveTask(store Storage, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")

		var mv domain.MoveRequest
		if err := decodeBody(c, &mv); err != nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if mv.ColumnID == nil && mv.Order == nil {
			return respondError(c, http.StatusBadRequest, "column_id or order is required")
		}

		userID := userFrom(c).ID
		key := c.Request().Header.Get(headerIdempotencyKey)
		dedupe := deduper != nil && key != ""
		if dedupe {
			added, err := deduper.Add(ctx, userID, key)
			switch {
			case err != nil:
				logger.WithFields(log.Fields{"task_id": id, "error": err.Error()}).Warn("idempotency check failed; applying move")
				dedupe = false
			case !added:
				task, err := store.GetTask(ctx, id)
				if err != nil {
					metricsFrom(c).SetErrorStage("storage")
					return fail(c, err, "Task not found", "Failed to move task")
				}
				taskMoves.WithLabelValues("replayed").Inc()
				logger.WithFields(log.Fields{"task_id": id, "idempotency_key": key}).Debug("duplicate move ignored")
				return respond(c, http.StatusOK, task)
			}
		}

		task, err := store.MoveTask(ctx, id, mv)
		if err != nil {
			if dedupe {
				if rerr := deduper.Remove(ctx, userID, key); rerr != nil {
					logger.WithFields(log.Fields{"task_id": id, "error": rerr.Error()}).Warn("release idempotency key failed")
				}
			}
			taskMoves.WithLabelValues("failed").Inc()
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Task not found", "Failed to move task")
		}
		taskMoves.WithLabelValues("applied").Inc()
		return respond(c, http.StatusOK, task)
	}
}

func deleteTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Task not found", "Failed to delete task")
		}
		return respondMessage(c, "Task deleted")
	}
}
