// Package app wires configuration into the repositories, services and
// outbound connections shared by the API server and the sweeper.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/database"
	"github.com/noah-isme/gema-study-api/internal/handler"
	"github.com/noah-isme/gema-study-api/internal/push"
	"github.com/noah-isme/gema-study-api/internal/repository"
	"github.com/noah-isme/gema-study-api/internal/service"
)

// Container holds the long-lived dependencies of one process.
type Container struct {
	DB        *gorm.DB
	Redis     *redis.Client
	NATS      *nats.Conn
	Transport push.Transport
	Validator *validator.Validate

	StudentTasks  service.StudentTaskService
	Reviews       service.TeacherReviewService
	Deliveries    service.DeliveryService
	Devices       service.DeviceService
	Notifications service.NotificationService
	Seeds         service.SeedService

	closers []func() error
}

// New connects to the database, runs migrations, dials the configured brokers
// and builds every service.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{Validator: validator.New(validator.WithRequiredStructEnabled())}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	c.DB = db
	if sqlDB, err := db.DB(); err == nil {
		c.closers = append(c.closers, sqlDB.Close)
	}

	if err := database.Migrate(db); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.Redis = client
		c.closers = append(c.closers, client.Close)
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.NATS = conn
		c.closers = append(c.closers, func() error {
			return conn.Drain()
		})
	}

	transport, err := push.NewTransport(push.Options{
		Kind:         cfg.PushTransport,
		Subject:      cfg.PushSubject,
		NATS:         c.NATS,
		Redis:        c.Redis,
		KafkaBrokers: cfg.KafkaBrokers,
	}, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Transport = transport
	if closer, ok := transport.(io.Closer); ok {
		// flush pending pushes before the connections they ride on go away
		c.closers = append([]func() error{closer.Close}, c.closers...)
	}

	dispatcher := push.NewClient(transport, logger)

	assignments := repository.NewAssignmentRepository(db)
	exercises := repository.NewExerciseRepository(db)
	users := repository.NewUserRepository(db)
	targets := repository.NewTargetRepository(db)
	notifications := repository.NewNotificationRepository(db)
	content := repository.NewContentRepository(db)

	c.StudentTasks = service.NewStudentTaskService(assignments, exercises, c.Validator, logger)
	c.Reviews = service.NewTeacherReviewService(assignments, users, c.Validator, logger)
	c.Deliveries = service.NewDeliveryService(assignments, exercises, users, dispatcher, c.Validator, logger)
	c.Devices = service.NewDeviceService(users, c.Validator, logger)
	c.Notifications = service.NewNotificationService(
		notifications,
		service.NewNotificationResolver(targets, users),
		dispatcher,
		c.Validator,
		cfg.Timezone,
		logger,
	)
	c.Seeds = service.NewSeedService(content, c.Validator, cfg.SeedEnabled, cfg.SeedToken, logger)

	return c, nil
}

// HealthProbes returns one probe per connected dependency.
func (c *Container) HealthProbes() map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.Redis != nil {
		probes["redis"] = func(ctx context.Context) error {
			return database.PingRedis(ctx, c.Redis)
		}
	}
	if c.NATS != nil {
		probes["nats"] = func(context.Context) error {
			return database.NATSStatus(c.NATS)
		}
	}
	return probes
}

// Close releases every connection in reverse dependency order.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
