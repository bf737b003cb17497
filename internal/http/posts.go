package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
)

// StatusRequest is the body of PATCH /api/linkedin-posts/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleListPosts(c echo.Context) error {
	posts, err := s.deps.Posts.List(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return s.respondError(c, err, entityPost)
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) handlePostsByStatus(c echo.Context) error {
	posts, err := s.deps.Posts.ListByStatus(c.Request().Context(), auth.UserID(c), c.Param("status"))
	if err != nil {
		return s.respondError(c, err, entityPost)
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) handleGetPost(c echo.Context) error {
	p, err := s.deps.Posts.Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return s.respondError(c, err, entityPost)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var in model.PostInput
	if err := bindBody(c, &in); err != nil {
		return invalidBody(c)
	}
	p, err := s.deps.Posts.Create(c.Request().Context(), auth.UserID(c), in)
	if err != nil {
		return s.respondError(c, err, entityPost)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdatePost(c echo.Context) error {
	var patch model.PostPatch
	if err := bindBody(c, &patch); err != nil {
		return invalidBody(c)
	}
	p, err := s.deps.Posts.Update(c.Request().Context(), auth.UserID(c), c.Param("id"), patch)
	if err != nil {
		return s.respondError(c, err, entityPost)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeletePost(c echo.Context) error {
	if err := s.deps.Posts.Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return s.respondError(c, err, entityPost)
	}
	return deleted(c, entityPost)
}

func (s *Server) handleUpdatePostStatus(c echo.Context) error {
	var req StatusRequest
	if err := bindBody(c, &req); err != nil {
		return invalidBody(c)
	}
	p, err := s.deps.Posts.UpdateStatus(c.Request().Context(), auth.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		return s.respondError(c, err, entityPost)
	}
	return c.JSON(http.StatusOK, p)
}
