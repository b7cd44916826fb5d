// internal/api/api.go
package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/featherframe/featherframe/internal/blobstore"
	"github.com/featherframe/featherframe/internal/conf"
	"github.com/featherframe/featherframe/internal/datastore"
	"github.com/featherframe/featherframe/internal/directory"
	"github.com/featherframe/featherframe/internal/errors"
	"github.com/featherframe/featherframe/internal/ingest"
	"github.com/featherframe/featherframe/internal/logging"
	"github.com/featherframe/featherframe/internal/observability"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo         *echo.Echo
	Group        *echo.Group
	DS           datastore.Interface
	Orchestrator *ingest.Orchestrator
	Blobs        blobstore.Store
	Directory    *directory.Directory
	Settings     *conf.Settings

	sightingCache  *cache.Cache // cache for owner list queries
	metrics        *observability.Metrics
	apiLogger      *slog.Logger   // structured logger for API operations
	apiLevelVar    *slog.LevelVar // dynamic level control
	apiLoggerClose func() error   // function to close the log file
	startTime      time.Time

	// Auth middleware for owner-scoped routes, injected via functional
	// options. When nil, owner-scoped routes reject every request.
	authMiddleware echo.MiddlewareFunc
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithAuthMiddleware sets the authentication middleware for owner-scoped
// routes.
func WithAuthMiddleware(mw echo.MiddlewareFunc) Option {
	return func(c *Controller) {
		c.authMiddleware = mw
	}
}

// New creates a new API controller and registers its routes on e.
func New(e *echo.Echo, ds datastore.Interface, orchestrator *ingest.Orchestrator,
	blobs blobstore.Store, dir *directory.Directory, settings *conf.Settings,
	metrics *observability.Metrics, opts ...Option) (*Controller, error) {

	c := &Controller{
		Echo:          e,
		DS:            ds,
		Orchestrator:  orchestrator,
		Blobs:         blobs,
		Directory:     dir,
		Settings:      settings,
		metrics:       metrics,
		sightingCache: cache.New(5*time.Minute, 10*time.Minute),
		startTime:     time.Now(),
	}

	// Structured logger for API requests
	apiLogPath := settings.Main.Log.Path
	if apiLogPath == "" {
		apiLogPath = "logs/web.log"
	}
	c.apiLevelVar = new(slog.LevelVar)
	c.apiLevelVar.Set(slog.LevelInfo)
	if settings.Debug {
		c.apiLevelVar.Set(slog.LevelDebug)
	}

	apiLogger, closeFunc, err := logging.NewFileLogger(apiLogPath, "api", c.apiLevelVar, settings.Main.Log)
	if err != nil {
		// Fall back to the process-wide logger rather than failing startup.
		slog.Warn("Failed to initialize API file logger, using default logger", "error", err)
		c.apiLogger = slog.Default().With("service", "api")
		c.apiLoggerClose = func() error { return nil }
	} else {
		c.apiLogger = apiLogger
		c.apiLoggerClose = closeFunc
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Group = e.Group("/api")
	c.Group.Use(middleware.Recover())
	c.Group.Use(middleware.CORS())
	c.Group.Use(middleware.BodyLimit(settings.Server.BodyLimit))
	c.Group.Use(c.LoggingMiddleware())
	c.Group.Use(c.MetricsMiddleware())

	c.initRoutes()

	return c, nil
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	// Public endpoints
	c.Group.GET("/health", c.HealthCheck)
	c.Group.GET("/species/suggestions", c.SpeciesSuggestions)
	c.Group.GET("/images/:name", c.ServeImage)

	// Owner-scoped endpoints behind bearer authentication
	protected := c.Group.Group("/sightings")
	if c.authMiddleware != nil {
		protected.Use(c.authMiddleware)
	} else {
		protected.Use(rejectUnauthenticated)
	}
	protected.POST("", c.UploadSightings)
	protected.GET("", c.ListSightings)
	protected.GET("/region/:region", c.SightingsByRegion)
	protected.GET("/species/:species", c.SightingsBySpecies)
	protected.GET("/search", c.SearchSightings)
}

// rejectUnauthenticated is installed when no auth middleware is configured,
// so owner-scoped data is never exposed by misconfiguration.
func rejectUnauthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusUnauthorized, map[string]string{
			"error": "authentication is not configured",
		})
	}
}

// LoggingMiddleware creates a middleware function that logs API requests
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			err := next(ctx)

			if c.apiLogger == nil {
				return err
			}

			req := ctx.Request()
			res := ctx.Response()

			args := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"ip", ctx.RealIP(),
				"latency_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				args = append(args, "error", err.Error())
				c.apiLogger.Error("API request", args...)
			} else if res.Status >= 400 {
				c.apiLogger.Warn("API request", args...)
			} else {
				c.apiLogger.Info("API request", args...)
			}
			return err
		}
	}
}

// MetricsMiddleware records request counters and latency per route pattern.
func (c *Controller) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if c.metrics == nil {
				return next(ctx)
			}
			start := time.Now()
			err := next(ctx)
			c.metrics.HTTP.RecordRequest(
				ctx.Request().Method,
				ctx.Path(),
				ctx.Response().Status,
				time.Since(start).Seconds(),
			)
			return err
		}
	}
}

// Shutdown performs cleanup of resources used by the API controller.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			slog.Error("Error closing API log file", "error", err)
		}
	}
	if c.sightingCache != nil {
		c.sightingCache.Flush()
	}
}

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error         string `json:"error"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // unique identifier for tracking this error
}

// generateCorrelationID creates a unique identifier for error tracking
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response. Internal
// failure detail is logged with a correlation ID but never surfaced to the
// caller on 5xx responses.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	correlationID := generateCorrelationID()

	clientMessage := message
	if code < http.StatusInternalServerError && err != nil {
		clientMessage = err.Error()
	}

	if c.apiLogger != nil {
		var errorStr string
		if err != nil {
			errorStr = err.Error()
		} else {
			errorStr = message
		}
		c.apiLogger.Error("API Error",
			"correlation_id", correlationID,
			"message", message,
			"error", errorStr,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ctx.RealIP(),
		)
	}

	return ctx.JSON(code, &ErrorResponse{
		Error:         clientMessage,
		Code:          code,
		CorrelationID: correlationID,
	})
}

// statusForError maps an error's category onto an HTTP status code.
func statusForError(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
