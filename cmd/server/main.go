package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"docqa/internal/di"
	"docqa/internal/infra"
	"docqa/internal/infra/config"
	"docqa/internal/infra/logger"
	"docqa/internal/infra/otel"
)

func main() {
	// 1. Load Config
	cfg := config.Load()
	ctx := context.Background()

	// 2. Initialize Telemetry and Logger
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Error("failed to init otel", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	log := logger.NewWithOTel(otelCfg.Enabled)
	slog.SetDefault(log)

	// 3. Initialize DB
	dbPool, err := infra.NewPostgresDB(ctx, cfg.DB.DSN(), infra.PoolConfig{
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Wire Components
	components, err := di.NewApplicationComponents(ctx, cfg, dbPool, log)
	if err != nil {
		log.Error("failed to wire components", "error", err)
		os.Exit(1)
	}

	// 5. Ensure Index Schema
	initCtx, cancelInit := context.WithTimeout(ctx, 60*time.Second)
	if err := components.Index.Initialize(initCtx); err != nil {
		cancelInit()
		log.Error("failed to initialize index", "error", err)
		os.Exit(1)
	}
	cancelInit()

	// 6. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logger.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("http_request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))

	// 7. Register Routes
	components.Handler.RegisterRoutes(e)

	// 8. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server_starting", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}
