package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

// Register wires up all API routes on the provided Echo instance. deduper
// may be nil, in which case Idempotency-Key headers are ignored.
func Register(e *echo.Echo, store Storage, auth Authenticator, deduper Deduper, logger *log.Logger) {
	e.GET("/healthz", healthz(store))

	g := e.Group("/api", RequireAuth(auth))

	g.GET("/projects", listProjects(store))
	g.POST("/projects", createProject(store))
	g.GET("/projects/:id", getProject(store))
	g.PUT("/projects/:id", updateProject(store))
	g.DELETE("/projects/:id", deleteProject(store))

	g.GET("/columns", listColumns(store))
	g.POST("/columns", createColumn(store))
	g.PATCH("/columns/reorder", reorderColumns(store))
	g.PUT("/columns/:id", updateColumn(store))
	g.DELETE("/columns/:id", deleteColumn(store))

	g.GET("/tasks", listTasks(store))
	g.POST("/tasks", createTask(store))
	g.GET("/tasks/:id", getTask(store))
	g.PUT("/tasks/:id", updateTask(store))
	g.PATCH("/tasks/:id/move", moveTask(store, deduper, logger))
	g.DELETE("/tasks/:id", deleteTask(store))
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, "unhealthy")
		}
		return c.NoContent(http.StatusOK)
	}
}
