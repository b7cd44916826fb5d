// internal/api/health.go
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/featherframe/featherframe/internal/buildinfo"
)

// HealthCheck handles GET /api/health.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        buildinfo.Version(),
		"build_date":     buildinfo.BuildDate(),
		"uptime_seconds": int64(time.Since(c.startTime).Seconds()),
	})
}
