package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// DeviceHandler registers push tokens for the signed-in user.
type DeviceHandler struct {
	service service.DeviceService
	logger  zerolog.Logger
}

// NewDeviceHandler constructs a DeviceHandler.
func NewDeviceHandler(service service.DeviceService, logger zerolog.Logger) *DeviceHandler {
	return &DeviceHandler{
		service: service,
		logger:  logger.With().Str("component", "device_handler").Logger(),
	}
}

// Register binds the device routes.
func (h *DeviceHandler) Register(router fiber.Router) {
	router.Post("/token", h.saveToken)
	router.Delete("/token", h.clearToken)
}

func (h *DeviceHandler) saveToken(c *fiber.Ctx) error {
	var req dto.DeviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SaveToken(c.UserContext(), actorFromContext(c), req); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "device token saved", nil)
}

func (h *DeviceHandler) clearToken(c *fiber.Ctx) error {
	if err := h.service.ClearToken(c.UserContext(), actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "device token cleared", nil)
}
