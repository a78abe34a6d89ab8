package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damacus/iron-explorer/internal/config"
	"github.com/damacus/iron-explorer/internal/handlers"
	"github.com/damacus/iron-explorer/internal/logger"
	customMiddleware "github.com/damacus/iron-explorer/internal/middleware"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.New(nil).Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "server - JSON API for browsing S3-compatible buckets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	return cmd
}

// serve runs the API until ctx is done or a signal arrives.
func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})

	if cfg.Store.Endpoint == "" {
		cfg.Store.Endpoint = "play.min.io:9000" // Default for development
		log.Warn().Str("endpoint", cfg.Store.Endpoint).Msg("store.endpoint not set, using default")
	}

	factory, err := services.NewFactory(cfg.Store.Provider)
	if err != nil {
		return err
	}

	e := newServer(cfg, factory, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Str("provider", cfg.Store.Provider).Msg("starting API server")
		if err := e.Start(cfg.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		return err
	}
	return nil
}

func newServer(cfg *config.Config, factory services.StoreFactory, log *logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Services
	authService := services.NewAuthService(cfg.Server.SessionKey)
	if len(cfg.Server.SessionKey) != 32 {
		log.Warn().Msg("server.session_key is not 32 bytes, tokens will not survive a restart")
	}
	authHandler := handlers.NewAuthHandler(authService, factory, cfg.Store.Endpoint, cfg.Store.Region, log)
	objectsHandler := handlers.NewObjectsHandler(factory, cfg.Server.PresignTTL, log)

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(customMiddleware.SecurityHeaders())
	e.Use(customMiddleware.CSRF())
	// Apply auth middleware globally - it will skip public routes internally
	e.Use(customMiddleware.AuthMiddleware(authService))

	// Public Routes (auth middleware will skip these)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST("/api/login", authHandler.Login)
	e.POST("/api/logout", authHandler.Logout)

	// Protected Routes
	api := e.Group("/api/buckets")
	api.GET("", objectsHandler.ListBuckets)
	api.GET("/:bucket/objects", objectsHandler.ListObjects)
	api.DELETE("/:bucket/objects", objectsHandler.DeleteObject)
	api.POST("/:bucket/upload-url", objectsHandler.UploadURL)
	api.POST("/:bucket/download-url", objectsHandler.DownloadURL)
	api.GET("/:bucket/usage", objectsHandler.Usage)

	return e
}
