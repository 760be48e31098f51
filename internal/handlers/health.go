package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mehedi89/chirper/backend/internal/realtime"
)

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "notification-api",
	})
}

// SocketHealth reports presence diagnostics for the realtime channel.
func SocketHealth(registry *realtime.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":      "ok",
			"connections": registry.Len(),
			"presence":    registry.Snapshot(),
		})
	}
}
