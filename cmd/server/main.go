// Command server runs the tutoring backend HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorapp/internal/config"
	"tutorapp/internal/di"
	"tutorapp/internal/handlers"
	"tutorapp/internal/observability"
	"tutorapp/internal/version"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		// logger is not available yet
		panic(err)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, cfg.OpenTelemetry.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			_ = syncErr
		}
	}()

	ctx := context.Background()
	logger.Info(ctx, "Starting server", map[string]interface{}{
		"version": version.Version,
		"commit":  version.Commit,
		"port":    cfg.Server.Port,
	})

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(
		cfg,
		container.UserService,
		container.QuestionService,
		container.LearningService,
		container.QuizService,
		container.AnswerService,
		container.GenerationService,
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server failed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Server shutdown failed", err)
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Container shutdown failed", err)
	}
	if sdkTP, ok := tp.(*sdktrace.TracerProvider); ok {
		if err := sdkTP.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Tracer shutdown failed", err)
		}
	}
	if mp != nil {
		if err := mp.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Meter shutdown failed", err)
		}
	}

	logger.Info(ctx, "Server stopped")
}
