package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/domain"
)

func listProjects(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		projects, err := store.ListProjects(c.Request().Context())
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "", "Failed to fetch projects")
		}
		return respond(c, http.StatusOK, projects)
	}
}

func getProject(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		detail, err := store.GetProject(c.Request().Context(), c.Param("id"))
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Project not found", "Failed to fetch project")
		}
		return respond(c, http.StatusOK, detail)
	}
}

func createProject(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in domain.NewProject
		if err := decodeBody(c, &in); err != nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if err := in.Validate(); err != nil {
			return fail(c, err, "", "")
		}
		detail, err := store.CreateProject(c.Request().Context(), userFrom(c), in)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "", "Failed to create project")
		}
		return respond(c, http.StatusCreated, detail)
	}
}

func updateProject(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.ProjectPatch
		if err := decodeBody(c, &patch); err != nil {
			metricsFrom(c).SetErrorStage("decode")
			return respondError(c, http.StatusBadRequest, "invalid body")
		}
		if patch.Empty() {
			return respondError(c, http.StatusBadRequest, "No valid fields to update")
		}
		p, err := store.UpdateProject(c.Request().Context(), c.Param("id"), patch)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Project not found", "Failed to update project")
		}
		return respond(c, http.StatusOK, p)
	}
}

func deleteProject(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return fail(c, err, "Project not found", "Failed to delete project")
		}
		return respondMessage(c, "Project deleted")
	}
}
