package middleware

// identity.go holds the accessors for the identity JWTAuth attaches to the
// Echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/videohub-auth/internal/model"
)

const userKey = "user"

// CurrentUser returns the identity attached by JWTAuth. ok is false when the
// route is not behind JWTAuth.
func CurrentUser(c echo.Context) (model.PublicUser, bool) {
	u, ok := c.Get(userKey).(model.PublicUser)
	return u, ok
}

// userID returns the authenticated user id, or 0 for anonymous requests.
func userID(c echo.Context) uint64 {
	if u, ok := CurrentUser(c); ok {
		return u.ID
	}
	return 0
}
