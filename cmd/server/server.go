// Package server implements the subcommand that runs the HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/featherframe/featherframe/internal/api"
	"github.com/featherframe/featherframe/internal/blobstore"
	"github.com/featherframe/featherframe/internal/classifier"
	"github.com/featherframe/featherframe/internal/conf"
	"github.com/featherframe/featherframe/internal/datastore"
	"github.com/featherframe/featherframe/internal/directory"
	"github.com/featherframe/featherframe/internal/ingest"
	"github.com/featherframe/featherframe/internal/logging"
	"github.com/featherframe/featherframe/internal/observability"
	"github.com/featherframe/featherframe/internal/observability/metrics"
	"github.com/featherframe/featherframe/internal/security"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal before the server is torn down.
const shutdownTimeout = 10 * time.Second

// Command creates the server subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the FeatherFrame HTTP service",
		Long:  "Start the sighting ingestion and retrieval service, serving the API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the server command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Server.Port, "port", viper.GetString("server.port"), "Port for the HTTP server")
	cmd.Flags().StringVar(&settings.Server.Host, "host", viper.GetString("server.host"), "Host interface to bind to")
	cmd.Flags().StringVar(&settings.Storage.Filesystem.Path, "uploads", viper.GetString("storage.filesystem.path"), "Directory for uploaded images with the filesystem backend")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

// Run wires the application together and serves HTTP until ctx is cancelled
// or a termination signal arrives.
func Run(ctx context.Context, settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceLogger := logging.ForService("server")
	if serviceLogger == nil {
		serviceLogger = slog.Default()
	}

	// Metrics first so every component can register collectors.
	obs, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("error initializing metrics: %w", err)
	}

	// Database
	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer closeDataStore(ds, serviceLogger)

	if withMetrics, ok := ds.(interface {
		SetMetrics(*metrics.DatastoreMetrics)
	}); ok {
		withMetrics.SetMetrics(obs.Datastore)
	}

	// Blob storage
	blobs, err := blobstore.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("error initializing blob storage: %w", err)
	}

	// Species classifier with a per-call timeout
	cls := classifier.WithTimeout(classifier.NewStub(), settings.Classifier.Timeout)

	orchestrator := ingest.New(blobs, cls, ds,
		ingest.WithMetrics(obs.Ingest),
		ingest.WithLogger(logging.ForService("ingest")),
		ingest.WithLimits(settings.Ingest.MaxBatchSize, settings.Ingest.MaxFileSize),
	)

	// Bearer token authentication
	validator := security.NewTokenValidator(settings.Security.JWTSecret, settings.Security.Issuer)
	authMiddleware := security.NewMiddleware(validator)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	controller, err := api.New(e, ds, orchestrator, blobs, directory.New(), settings, obs,
		api.WithAuthMiddleware(authMiddleware.Authenticate))
	if err != nil {
		return fmt.Errorf("error initializing API controller: %w", err)
	}
	defer controller.Shutdown()

	e.GET("/metrics", echo.WrapHandler(obs.Handler()))

	addr := settings.Server.Host + ":" + settings.Server.Port

	errChan := make(chan error, 1)
	go func() {
		serviceLogger.Info("Starting HTTP server", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	serviceLogger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	return nil
}

func closeDataStore(ds datastore.Interface, logger *slog.Logger) {
	if err := ds.Close(); err != nil {
		logger.Error("Error closing database", "error", err)
	}
}
