package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/config"
	"github.com/iliyamo/videohub-auth/internal/handler"
	"github.com/iliyamo/videohub-auth/internal/middleware"
)

// New returns an Echo instance with the global middleware installed:
// panic recovery, request logging, credentialed CORS and a body size limit.
func New(cfg config.Config, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	return e
}

// RegisterRoutes registers routes that do not require authentication and sit
// outside the users group. Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/api/v1/healthcheck", health)
}

// RegisterAuth registers the user routes under /api/v1/users. Register, login
// and refresh are public; the rest run behind the JWTAuth middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth middleware.Authenticator, log *zap.Logger) {
	g := e.Group("/api/v1/users")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh-token", a.Refresh)

	jwt := middleware.JWTAuth(auth, log)
	g.POST("/logout", a.Logout, jwt)
	g.GET("/current-user", a.CurrentUser, jwt)
	g.POST("/change-password", a.ChangePassword, jwt)
	g.PATCH("/update-account", a.UpdateAccount, jwt)
}
