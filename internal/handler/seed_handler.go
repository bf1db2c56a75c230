package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// SeedTokenHeader carries the shared secret for content imports.
const SeedTokenHeader = "X-Seed-Token"

// SeedHandler loads exercise content and announcements from a JSON document.
// It sits outside JWT auth and relies on the import token instead.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

func NewSeedHandler(svc service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: svc,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/content", h.importContent)
}

func (h *SeedHandler) importContent(c *fiber.Ctx) error {
	var req dto.SeedContentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	counts, err := h.service.Import(c.UserContext(), c.Get(SeedTokenHeader), req)
	switch {
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.SendError(c, fiber.StatusForbidden, "content import disabled")
	case errors.Is(err, service.ErrSeedUnauthorized):
		requestLogger(h.logger, c).Warn().Str("ip", c.IP()).Msg("content import rejected")
		return utils.SendError(c, fiber.StatusForbidden, "invalid import token")
	case err != nil:
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "content imported", counts)
}
