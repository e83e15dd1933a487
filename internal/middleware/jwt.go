package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/model"
	"github.com/iliyamo/videohub-auth/internal/service"
	"github.com/iliyamo/videohub-auth/internal/utils"
)

// AccessCookie is the cookie that carries the access token for browser clients.
const AccessCookie = "accessToken"

// Authenticator verifies an access token and returns the identity it names.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.PublicUser, error)
}

// JWTAuth returns an Echo middleware that reads the access token from the
// accessToken cookie, falling back to an "Authorization: Bearer" header, and
// attaches the verified identity to the context for CurrentUser. Requests
// without any token are rejected before the authenticator is called.
func JWTAuth(auth Authenticator, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessToken(c.Request())
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, utils.Failure(http.StatusUnauthorized, "unauthorized request"))
			}

			user, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				if service.KindOf(err) == service.KindInternal {
					log.Error("authenticate request", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, utils.Failure(http.StatusInternalServerError, "internal server error"))
				}
				log.Debug("rejected access token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, utils.Failure(http.StatusUnauthorized, "invalid access token"))
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// accessToken returns the cookie token if present, otherwise the bearer token.
func accessToken(r *http.Request) string {
	if ck, err := r.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
