package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/service"
	"github.com/iliyamo/videohub-auth/internal/utils"
)

// statusOf maps a service error kind to its HTTP status.
func statusOf(k service.Kind) int {
	switch k {
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an envelope. Internal failures are logged with
// their cause and reported with a generic message.
func (h *AuthHandler) writeError(c echo.Context, err error) error {
	kind := service.KindOf(err)
	status := statusOf(kind)
	if kind == service.KindInternal {
		h.Log.Error("request failed",
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Get("request_id")),
			zap.Error(err))
		return c.JSON(status, utils.Failure(status, "internal server error"))
	}

	msg := err.Error()
	var se *service.Error
	if errors.As(err, &se) {
		msg = se.Message
		if se.Err != nil {
			h.Log.Debug("request rejected", zap.String("kind", kind.String()), zap.Error(se.Err))
		}
	}
	return c.JSON(status, utils.Failure(status, msg))
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, utils.Failure(http.StatusBadRequest, "invalid body"))
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, utils.Failure(http.StatusUnauthorized, "unauthorized request"))
}
