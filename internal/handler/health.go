package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the probe endpoint used by load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
