package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// NotificationHandler lets teachers push or schedule announcement, problem
// and feedback notifications.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Post("/", h.notify)
}

func (h *NotificationHandler) notify(c *fiber.Ctx) error {
	var req dto.NotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Notify(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if result.Scheduled {
		return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "notification scheduled", result)
	}
	return utils.SendSuccess(c, "notification sent", result)
}
