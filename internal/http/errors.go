package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/store"
)

// Entity names used in response messages.
const (
	entityTask       = "Task"
	entityWeeklyGoal = "Weekly goal"
	entityDailyGoal  = "Daily goal"
	entityPost       = "LinkedIn post"
)

// messageResponse is the body of every non-entity reply.
type messageResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// respondError maps service errors to status codes:
//
//	*model.ValidationError -> 400 {"message": ..., "field": ...}
//	store.ErrNotFound      -> 404 {"message": "<Entity> not found"}
//	auth.ErrUnauthenticated -> 401 {"message": "Unauthorized"}
//	anything else          -> 500 {"message": "Server Error"}
func (s *Server) respondError(c echo.Context, err error, entity string) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, messageResponse{Message: verr.Message, Field: verr.Field})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, messageResponse{Message: entity + " not found"})
	case errors.Is(err, auth.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
	default:
		s.logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Server Error"})
	}
}

// bindBody decodes the request body into v. Path and query parameters are
// never bound.
func bindBody(c echo.Context, v any) error {
	return (&echo.DefaultBinder{}).BindBody(c, v)
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
}

func deleted(c echo.Context, entity string) error {
	return c.JSON(http.StatusOK, messageResponse{Message: entity + " deleted successfully"})
}
