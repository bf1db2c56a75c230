package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/app"
	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/sweeper"
)

// The sweeper delivers due scheduled notifications. Without GEMA_SWEEP_CRON it
// sweeps once and exits, for use from an external scheduler.
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sweeper").Logger()

	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("sweeper exited")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
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

	runner := sweeper.NewRunner(container.Notifications, 0, logger)
	if cfg.SweepCron == "" {
		_, err := runner.RunOnce(ctx)
		return err
	}

	scheduler, err := runner.Schedule(ctx, cfg.SweepCron)
	if err != nil {
		return err
	}
	scheduler.Start()
	logger.Info().Str("schedule", cfg.SweepCron).Str("timezone", cfg.Timezone.String()).Msg("sweeper started")

	<-ctx.Done()
	<-scheduler.Stop().Done()
	logger.Info().Msg("sweeper stopped")
	return nil
}
