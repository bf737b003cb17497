package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/goal"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
)

// goalHandlers serves one goal cadence.
type goalHandlers struct {
	s   *Server
	svc goal.Service
}

func (h goalHandlers) entity() string {
	if h.svc.Cadence() == model.Daily {
		return entityDailyGoal
	}
	return entityWeeklyGoal
}

func (h goalHandlers) list(c echo.Context) error {
	goals, err := h.svc.List(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return h.s.respondError(c, err, h.entity())
	}
	return c.JSON(http.StatusOK, goals)
}

func (h goalHandlers) byDate(c echo.Context) error {
	goals, err := h.svc.ListByDate(c.Request().Context(), auth.UserID(c), c.Param("date"))
	if err != nil {
		return h.s.respondError(c, err, h.entity())
	}
	return c.JSON(http.StatusOK, goals)
}

func (h goalHandlers) get(c echo.Context) error {
	g, err := h.svc.Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return h.s.respondError(c, err, h.entity())
	}
	return c.JSON(http.StatusOK, g)
}

func (h goalHandlers) create(c echo.Context) error {
	var in model.GoalInput
	if err := bindBody(c, &in); err != nil {
		return invalidBody(c)
	}
	g, err := h.svc.Create(c.Request().Context(), auth.UserID(c), in)
	if err != nil {
		return h.s.respondError(c, err, h.entity())
	}
	return c.JSON(http.StatusCreated, g)
}

func (h goalHandlers) update(c echo.Context) error {
	var p model.GoalPatch
	if err := bindBody(c, &p); err != nil {
		return invalidBody(c)
	}
	g, err := h.svc.Update(c.Request().Context(), auth.UserID(c), c.Param("id"), p)
	if err != nil {
		return h.s.respondError(c, err, h.entity())
	}
	return c.JSON(http.StatusOK, g)
}

func (h goalHandlers) delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return h.s.respondError(c, err, h.entity())
	}
	return deleted(c, h.entity())
}

func (h goalHandlers) toggle(c echo.Context) error {
	g, err := h.svc.ToggleCompletion(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return h.s.respondError(c, err, h.entity())
	}
	return c.JSON(http.StatusOK, g)
}
