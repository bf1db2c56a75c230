package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/app"
	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/handler"
	"github.com/noah-isme/gema-study-api/internal/middleware"
	"github.com/noah-isme/gema-study-api/internal/router"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

const (
	bodyLimit       = 4 * 1024 * 1024
	shutdownTimeout = 5 * time.Second
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api").Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("api exited")
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.RequireJWT(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialise dependencies: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release dependencies")
		}
	}()

	server := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler(logger),
	})

	middleware.Register(server, middleware.Config{Logger: &logger})
	router.Register(server, cfg, router.Dependencies{
		StudentTaskHandler:  handler.NewStudentTaskHandler(container.StudentTasks, logger),
		TeacherHandler:      handler.NewTeacherHandler(container.Deliveries, container.Reviews, logger),
		NotificationHandler: handler.NewNotificationHandler(container.Notifications, logger),
		DeviceHandler:       handler.NewDeviceHandler(container.Devices, logger),
		SeedHandler:         handler.NewSeedHandler(container.Seeds, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		CompletionLimiter:   middleware.RateLimit("completions", cfg.CompletionRateLimit, time.Minute),
		HealthProbes:        container.HealthProbes(),
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- server.Listen(cfg.HTTPAddress())
	}()
	logger.Info().
		Str("address", cfg.HTTPAddress()).
		Str("push_transport", container.Transport.Name()).
		Str("timezone", cfg.Timezone.String()).
		Msg("api started")

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("api stopped")
	return nil
}

// errorHandler renders fiber routing errors, such as 404 and 405, in the API
// envelope.
func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return utils.SendError(c, fiberErr.Code, fiberErr.Message)
		}
		logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
