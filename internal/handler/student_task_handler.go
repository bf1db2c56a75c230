package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// StudentTaskHandler exposes the dashboard and per-assignment endpoints.
type StudentTaskHandler struct {
	service service.StudentTaskService
	logger  zerolog.Logger
}

// NewStudentTaskHandler creates a new handler instance.
func NewStudentTaskHandler(service service.StudentTaskService, logger zerolog.Logger) *StudentTaskHandler {
	return &StudentTaskHandler{
		service: service,
		logger:  logger.With().Str("component", "student_task_handler").Logger(),
	}
}

// Register attaches the student routes. writeGuards run before every
// state-changing route.
func (h *StudentTaskHandler) Register(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Get("/dashboard", h.dashboard)
	router.Get("/tasks/:kind/:id", h.open)

	answer := append(append([]fiber.Handler{}, writeGuards...), h.answerQuiz)
	router.Post("/tasks/quiz/:id/answer", answer...)

	complete := append(append([]fiber.Handler{}, writeGuards...), h.complete)
	router.Post("/tasks/:kind/:id/complete", complete...)
}

func (h *StudentTaskHandler) dashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *StudentTaskHandler) open(c *fiber.Ctx) error {
	kind, ok := parseKindParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment kind")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := h.service.Open(c.UserContext(), actorFromContext(c), kind, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "assignment retrieved", task)
}

func (h *StudentTaskHandler) answerQuiz(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.QuizAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.AnswerQuiz(c.UserContext(), actorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "incorrect, try again"
	if result.Correct {
		message = "correct"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *StudentTaskHandler) complete(c *fiber.Ctx) error {
	kind, ok := parseKindParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment kind")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.CompleteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.service.Complete(c.UserContext(), actorFromContext(c), kind, id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("assignment_id", id).
		Str("kind", string(kind)).
		Bool("has_next", result.NextID != nil).
		Msg("assignment completed")

	return utils.SendSuccess(c, completionMessage(kind), result)
}

func completionMessage(kind batch.Kind) string {
	switch kind {
	case batch.KindFlashcard:
		return "flashcard completed"
	case batch.KindWriting:
		return "writing submitted"
	default:
		return "quiz completed"
	}
}
