package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// TeacherHandler exposes delivery and review endpoints to teachers.
type TeacherHandler struct {
	delivery service.DeliveryService
	review   service.TeacherReviewService
	logger   zerolog.Logger
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(delivery service.DeliveryService, review service.TeacherReviewService, logger zerolog.Logger) *TeacherHandler {
	return &TeacherHandler{
		delivery: delivery,
		review:   review,
		logger:   logger.With().Str("component", "teacher_handler").Logger(),
	}
}

// Register binds the teacher routes.
func (h *TeacherHandler) Register(router fiber.Router) {
	router.Post("/deliveries", h.deliver)
	router.Get("/reviews", h.reviews)
	router.Put("/feedback", h.feedback)
	router.Put("/feedback/bulk", h.feedbackBulk)
}

func (h *TeacherHandler) deliver(c *fiber.Ctx) error {
	var req dto.DeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.delivery.Deliver(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignments delivered", result)
}

func (h *TeacherHandler) reviews(c *fiber.Ctx) error {
	reviews, err := h.review.Reviews(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, reviews, "reviews retrieved", map[string]interface{}{"count": len(reviews)})
}

func (h *TeacherHandler) feedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.review.SaveFeedback(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback saved", record)
}

func (h *TeacherHandler) feedbackBulk(c *fiber.Ctx) error {
	var req dto.BulkFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.review.SaveFeedbackBulk(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback saved", result)
}
