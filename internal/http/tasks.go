package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/task"
)

// handleListTasks serves GET /api/tasks with optional ?category= and
// ?completed= filters.
func (s *Server) handleListTasks(c echo.Context) error {
	f := task.Filter{Category: c.QueryParam("category")}
	if v := c.QueryParam("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s.respondError(c, model.Invalid("completed", "must be true or false"), entityTask)
		}
		f.Completed = &b
	}
	tasks, err := s.deps.Tasks.List(c.Request().Context(), auth.UserID(c), f)
	if err != nil {
		return s.respondError(c, err, entityTask)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleTasksByCategory(c echo.Context) error {
	tasks, err := s.deps.Tasks.ListByCategory(c.Request().Context(), auth.UserID(c), c.Param("category"))
	if err != nil {
		return s.respondError(c, err, entityTask)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleTasksByDate(c echo.Context) error {
	tasks, err := s.deps.Tasks.ListByDate(c.Request().Context(), auth.UserID(c), c.Param("date"))
	if err != nil {
		return s.respondError(c, err, entityTask)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c echo.Context) error {
	t, err := s.deps.Tasks.Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return s.respondError(c, err, entityTask)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var in model.TaskInput
	if err := bindBody(c, &in); err != nil {
		return invalidBody(c)
	}
	t, err := s.deps.Tasks.Create(c.Request().Context(), auth.UserID(c), in)
	if err != nil {
		return s.respondError(c, err, entityTask)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var p model.TaskPatch
	if err := bindBody(c, &p); err != nil {
		return invalidBody(c)
	}
	t, err := s.deps.Tasks.Update(c.Request().Context(), auth.UserID(c), c.Param("id"), p)
	if err != nil {
		return s.respondError(c, err, entityTask)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.deps.Tasks.Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return s.respondError(c, err, entityTask)
	}
	return deleted(c, entityTask)
}

func (s *Server) handleToggleTask(c echo.Context) error {
	t, err := s.deps.Tasks.ToggleCompletion(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return s.respondError(c, err, entityTask)
	}
	return c.JSON(http.StatusOK, t)
}
