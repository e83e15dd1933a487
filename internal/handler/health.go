package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/utils"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is the health-check endpoint used by load balancers. It answers 200
// only while the database responds to a ping.
func Health(db Pinger, log *zap.Logger) echo.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Error("healthcheck: database ping failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, utils.Failure(http.StatusInternalServerError, "database unreachable"))
		}
		return c.JSON(http.StatusOK, utils.Success(http.StatusOK, "OK", "health check passed"))
	}
}
