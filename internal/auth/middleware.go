package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ceo-assistant/internal/logging"
)

const contextKey = "identity"

// Middleware rejects unauthenticated requests with 401
// {"message":"Unauthorized"}. Authenticated requests carry the identity in
// the echo context and in the request context, where logging picks up the
// user ID.
func Middleware(a Authenticator, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := a.Authenticate(req.Context(), req)
			if err != nil || id == nil || id.UserID == "" {
				logger.Debug("rejected request",
					zap.String("path", c.Path()),
					zap.Error(err),
				)
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			}

			ctx := WithIdentity(req.Context(), id)
			ctx = logging.WithUserID(ctx, id.UserID)
			c.SetRequest(req.WithContext(ctx))
			c.Set(contextKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity set by Middleware, or nil.
func IdentityFrom(c echo.Context) *Identity {
	if id, ok := c.Get(contextKey).(*Identity); ok {
		return id
	}
	return FromContext(c.Request().Context())
}

// UserID returns the authenticated user ID, or "".
func UserID(c echo.Context) string {
	if id := IdentityFrom(c); id != nil {
		return id.UserID
	}
	return ""
}
