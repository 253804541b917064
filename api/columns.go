package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/domain"
)

type columnRequest struct {
	Title     string `json:"title"`
	ProjectID string `json:"project_id,omitempty"`
}

type reorderRequest struct {
	Columns []domain.ColumnOrder `json:"columns"`
}

func listColumns(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID := c.QueryParam("project_id")
		if projectID == "" {
			return respondError(c, http.StatusBadRequest, "project_id is required")
		}
		cols, err := store.ListColumns(c.Request().Context(), projectID)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "", "Failed to fetch columns")
		}
		return respond(c, http.StatusOK, cols)
	}
}

func createColumn(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req columnRequest
		if err := decodeBody(c, &req); err != nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if req.Title == "" || req.ProjectID == "" {
			return respondError(c, http.StatusBadRequest, "Title and project_id are required")
		}
		col, err := store.CreateColumn(c.Request().Context(), req.ProjectID, req.Title)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Project not found", "Failed to create column")
		}
		return respond(c, http.StatusCreated, col)
	}
}

func updateColumn(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req columnRequest
		if err := decodeBody(c, &req); err != nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if req.Title == "" {
			return respondError(c, http.StatusBadRequest, "Title is required")
		}
		col, err := store.UpdateColumn(c.Request().Context(), c.Param("id"), req.Title)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Column not found", "Failed to update column")
		}
		return respond(c, http.StatusOK, col)
	}
}

func reorderColumns(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req reorderRequest
		if err := decodeBody(c, &req); err != nil || req.Columns == nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "columns array is required")
		}
		if err := store.ReorderColumns(c.Request().Context(), req.Columns); err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "", "Failed to reorder columns")
		}
		return respondMessage(c, "Columns reordered")
	}
}

func deleteColumn(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteColumn(c.Request().Context(), c.Param("id")); err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Column not found", "Failed to delete column")
		}
		return respondMessage(c, "Column deleted")
	}
}
