package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/observability"
	"github.com/noah-isme/gema-study-api/internal/push"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

// ErrInvalidSchedule rejects malformed schedule requests.
var ErrInvalidSchedule = errors.New("invalid notification schedule")

const scheduleLayout = "2006-01-02T15:04"

// Sweep outcomes recorded per item.
const (
	sweepDelivered   = "delivered"
	sweepUndelivered = "undelivered"
	sweepUnresolved  = "unresolved"
	sweepFailed      = "failed"
)

// NotificationService schedules deferred pushes, sweeps the due ones and
// sends immediate pushes. A scheduled notification moves from pending to sent
// exactly once; Sweep marks every due item sent whatever the delivery outcome.
type NotificationService interface {
	// Schedule always inserts a new pending notification.
	Schedule(ctx context.Context, actor Actor, kind models.NotificationKind, targetID uint, at time.Time) (models.ScheduledNotification, error)
	// Sweep delivers every pending notification with scheduled_at <= now and
	// returns how many it marked sent. Callers must not run sweeps concurrently.
	// A cancelled ctx stops the sweep before the next item; items already
	// dispatched are still marked sent.
	Sweep(ctx context.Context, actor Actor, now time.Time) (int, error)
	// Notify sends now or schedules, depending on req.ScheduledAt.
	Notify(ctx context.Context, actor Actor, req dto.NotifyRequest) (dto.NotifyResponse, error)
}

type notificationService struct {
	repo       repository.NotificationRepository
	resolver   NotificationResolver
	dispatcher push.Dispatcher
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	location   *time.Location
}

// NewNotificationService constructs the scheduler. Local schedule times are
// interpreted in location; nil means UTC.
func NewNotificationService(repo repository.NotificationRepository, resolver NotificationResolver, dispatcher push.Dispatcher, validate *validator.Validate, location *time.Location, logger zerolog.Logger) NotificationService {
	if location == nil {
		location = time.UTC
	}

	return &notificationService{
		repo:       repo,
		resolver:   resolver,
		dispatcher: dispatcher,
		validator:  validate,
		logger:     logger.With().Str("component", "notification_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-study-api/internal/service/notification"),
		location:   location,
	}
}

func (s *notificationService) Schedule(ctx context.Context, actor Actor, kind models.NotificationKind, targetID uint, at time.Time) (models.ScheduledNotification, error) {
	if !actor.IsTeacher() && !actor.IsSystem() {
		return models.ScheduledNotification{}, ErrForbidden
	}
	if !kind.Valid() || targetID == 0 || at.IsZero() {
		return models.ScheduledNotification{}, ErrInvalidSchedule
	}

	ctx, span := s.tracer.Start(ctx, "notifications.schedule", trace.WithAttributes(
		attribute.String("notification.kind", string(kind)),
		attribute.Int64("notification.target_id", int64(targetID)),
		attribute.Int64("notification.actor_id", int64(actor.ID)),
	))
	defer span.End()

	notification := models.ScheduledNotification{
		NotificationType: kind,
		TargetID:         targetID,
		ScheduledAt:      at.UTC(),
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.ScheduledNotification{}, err
	}

	observability.NotificationsScheduled().WithLabelValues(string(kind)).Inc()
	s.logger.Info().
		Uint("notification_id", notification.ID).
		Str("kind", string(kind)).
		Uint("target_id", targetID).
		Time("scheduled_at", notification.ScheduledAt).
		Uint("actor_id", actor.ID).
		Msg("notification scheduled")

	return notification, nil
}

func (s *notificationService) Sweep(ctx context.Context, actor Actor, now time.Time) (int, error) {
	if !actor.IsSystem() && !actor.IsTeacher() {
		return 0, ErrForbidden
	}

	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "notifications.sweep")
	defer span.End()

	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("list due notifications: %w", err)
	}
	span.SetAttributes(attribute.Int("notifications.due", len(due)))

	processed := 0
	for i, item := range due {
		if ctx.Err() != nil {
			s.logger.Warn().Err(ctx.Err()).Int("remaining", len(due)-i).Msg("sweep interrupted, leaving remaining notifications pending")
			break
		}
		if s.sweepOne(ctx, item, now) {
			processed++
		}
	}

	observability.SweepDuration().Observe(time.Since(started).Seconds())
	s.logger.Info().Int("due", len(due)).Int("processed", processed).Msgf("processed %d due notifications", processed)

	return processed, nil
}

// sweepOne dispatches one item and marks it sent. Resolver errors, transport
// failures and panics are logged and never escape.
func (s *notificationService) sweepOne(ctx context.Context, item models.ScheduledNotification, now time.Time) bool {
	logger := s.logger.With().
		Uint("notification_id", item.ID).
		Str("kind", string(item.NotificationType)).
		Uint("target_id", item.TargetID).
		Logger()

	ctx, span := s.tracer.Start(ctx, "notifications.sweep_item", trace.WithAttributes(
		attribute.Int64("notification.id", int64(item.ID)),
		attribute.String("notification.kind", string(item.NotificationType)),
	))
	defer span.End()

	outcome := s.dispatchDue(ctx, item, logger, span)

	// Once dispatched, the item is marked sent even if the sweep was cancelled
	// meanwhile; a retry would deliver it twice.
	marked, err := s.repo.MarkSent(context.WithoutCancel(ctx), item.ID, now)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("failed to mark notification sent")
		return false
	}
	if !marked {
		logger.Warn().Msg("notification already marked sent by another sweep")
		return false
	}

	observability.NotificationsSwept().WithLabelValues(string(item.NotificationType), outcome).Inc()
	return true
}

func (s *notificationService) dispatchDue(ctx context.Context, item models.ScheduledNotification, logger zerolog.Logger, span trace.Span) (outcome string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = sweepFailed
			span.SetStatus(codes.Error, "panic during dispatch")
			logger.Error().Interface("panic", recovered).Msg("notification dispatch panicked")
		}
	}()

	rendered, err := s.resolver.Resolve(ctx, item.NotificationType, item.TargetID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrTargetNotFound) {
			logger.Warn().Err(err).Msg("notification target missing, nothing to deliver")
			return sweepUnresolved
		}
		logger.Error().Err(err).Msg("failed to resolve notification target")
		return sweepFailed
	}

	delivered := s.dispatcher.SendToMany(ctx, rendered.Tokens, rendered.Message)
	logger.Info().
		Int("recipients", len(rendered.Tokens)).
		Int("delivered", delivered).
		Msg("scheduled notification dispatched")

	if len(rendered.Tokens) > 0 && delivered == 0 {
		return sweepUndelivered
	}
	return sweepDelivered
}

func (s *notificationService) Notify(ctx context.Context, actor Actor, req dto.NotifyRequest) (dto.NotifyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NotifyResponse{}, err
	}
	if !actor.IsTeacher() {
		return dto.NotifyResponse{}, ErrForbidden
	}

	kind := models.NotificationKind(req.Kind)

	ctx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.String("notification.kind", req.Kind),
		attribute.Int64("notification.target_id", int64(req.TargetID)),
		attribute.Bool("notification.scheduled", req.ScheduledAt != ""),
	))
	defer span.End()

	rendered, err := s.resolver.Resolve(ctx, kind, req.TargetID)
	if err != nil {
		span.RecordError(err)
		return dto.NotifyResponse{}, err
	}

	if scheduledAt := strings.TrimSpace(req.ScheduledAt); scheduledAt != "" {
		local, err := time.ParseInLocation(scheduleLayout, scheduledAt, s.location)
		if err != nil {
			return dto.NotifyResponse{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}

		notification, err := s.Schedule(ctx, actor, kind, req.TargetID, local)
		if err != nil {
			return dto.NotifyResponse{}, err
		}

		return dto.NotifyResponse{
			Scheduled:      true,
			NotificationID: &notification.ID,
			ScheduledAt:    &notification.ScheduledAt,
		}, nil
	}

	delivered := s.dispatcher.SendToMany(ctx, rendered.Tokens, rendered.Message)
	s.logger.Info().
		Str("kind", req.Kind).
		Uint("target_id", req.TargetID).
		Int("recipients", len(rendered.Tokens)).
		Int("delivered", delivered).
		Msg("immediate notification dispatched")

	return dto.NotifyResponse{Delivered: delivered}, nil
}
