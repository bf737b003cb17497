package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
)

const readyTimeout = 2 * time.Second

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Telemetry string `json:"telemetry,omitempty"`
}

// SessionRequest is the body of POST /api/session.
type SessionRequest struct {
	IDToken string `json:"idToken"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.String(http.StatusOK, "CEO Assistant API is running...")
}

// handleHealth returns a simple liveness response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady reports 503 while the store is unreachable.
func (s *Server) handleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "store unreachable"})
	}
	resp := HealthResponse{Status: "ok"}
	if s.deps.Telemetry != nil {
		resp.Telemetry = "ok"
		if h := s.deps.Telemetry.Health(); h.Degraded {
			resp.Telemetry = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleActivity serves GET /api/activity?limit=.
func (s *Server) handleActivity(c echo.Context) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return s.respondError(c, model.Invalid("limit", "must be a positive integer"), "Activity")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, s.deps.Feed.Recent(auth.UserID(c), limit))
}

// handleStats serves GET /api/stats?date=.
func (s *Server) handleStats(c echo.Context) error {
	sum, err := s.deps.Stats.Summary(c.Request().Context(), auth.UserID(c), c.QueryParam("date"))
	if err != nil {
		return s.respondError(c, err, "Stats")
	}
	return c.JSON(http.StatusOK, sum)
}

// handleCreateSession exchanges a Firebase ID token for a session cookie.
func (s *Server) handleCreateSession(c echo.Context) error {
	issuer, ok := s.deps.Auth.(auth.SessionIssuer)
	if !ok {
		return c.JSON(http.StatusNotImplemented, messageResponse{Message: "Sessions require firebase auth"})
	}
	var req SessionRequest
	if err := bindBody(c, &req); err != nil || req.IDToken == "" {
		return invalidBody(c)
	}

	value, err := issuer.NewSession(c.Request().Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
		}
		return s.respondError(c, err, "Session")
	}

	c.SetCookie(&http.Cookie{
		Name:     issuer.CookieName(),
		Value:    value,
		Path:     "/",
		MaxAge:   int(issuer.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.config.Production,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, messageResponse{Message: "Session created"})
}

// handleDeleteSession clears the session cookie.
func (s *Server) handleDeleteSession(c echo.Context) error {
	name := "session"
	if issuer, ok := s.deps.Auth.(auth.SessionIssuer); ok {
		name = issuer.CookieName()
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.Production,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, messageResponse{Message: "Signed out"})
}
