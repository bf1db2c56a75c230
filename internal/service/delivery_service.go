package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/observability"
	"github.com/noah-isme/gema-study-api/internal/push"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

var (
	// ErrEmptyDelivery rejects deliveries without any content.
	ErrEmptyDelivery = errors.New("delivery must include at least one item")
	// ErrContentNotFound indicates a delivered content id does not exist.
	ErrContentNotFound = errors.New("content not found")
	// ErrUnknownStudent indicates a recipient is not a student account.
	ErrUnknownStudent = errors.New("recipient is not a student")
)

// DeliveryService hands quizzes, flashcards and writings to students.
type DeliveryService interface {
	Deliver(ctx context.Context, actor Actor, req dto.DeliveryRequest) (dto.DeliveryResponse, error)
}

type deliveryService struct {
	assignments repository.AssignmentRepository
	exercises   repository.ExerciseRepository
	users       repository.UserRepository
	dispatcher  push.Dispatcher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDeliveryService constructs the delivery service.
func NewDeliveryService(assignments repository.AssignmentRepository, exercises repository.ExerciseRepository, users repository.UserRepository, dispatcher push.Dispatcher, validate *validator.Validate, logger zerolog.Logger) DeliveryService {
	return &deliveryService{
		assignments: assignments,
		exercises:   exercises,
		users:       users,
		dispatcher:  dispatcher,
		validator:   validate,
		logger:      logger.With().Str("component", "delivery_service").Logger(),
		now:         time.Now,
	}
}

// Deliver creates one record per (item, student) pair not delivered before.
// Every record created by one call shares the same assigned_at, which is what
// later groups them into one batch.
func (s *deliveryService) Deliver(ctx context.Context, actor Actor, req dto.DeliveryRequest) (dto.DeliveryResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DeliveryResponse{}, err
	}
	if !actor.IsTeacher() {
		return dto.DeliveryResponse{}, ErrForbidden
	}

	items := map[batch.Kind][]uint{
		batch.KindQuiz:      unique(req.QuizIDs),
		batch.KindFlashcard: unique(req.FlashcardIDs),
		batch.KindWriting:   unique(req.WritingIDs),
	}
	total := 0
	for _, ids := range items {
		total += len(ids)
	}
	if total == 0 {
		return dto.DeliveryResponse{}, ErrEmptyDelivery
	}

	studentIDs := unique(req.StudentIDs)
	students, err := s.users.ListByIDs(ctx, studentIDs)
	if err != nil {
		return dto.DeliveryResponse{}, err
	}
	if len(students) != len(studentIDs) {
		return dto.DeliveryResponse{}, ErrUnknownStudent
	}
	for _, student := range students {
		if student.Role != models.RoleStudent {
			return dto.DeliveryResponse{}, fmt.Errorf("%w: %d", ErrUnknownStudent, student.ID)
		}
	}

	for _, kind := range batch.Kinds {
		if len(items[kind]) == 0 {
			continue
		}
		found, err := s.exercises.ExistingIDs(ctx, kind, items[kind])
		if err != nil {
			return dto.DeliveryResponse{}, err
		}
		if len(found) != len(items[kind]) {
			return dto.DeliveryResponse{}, fmt.Errorf("%w: %s", ErrContentNotFound, kind)
		}
	}

	assignedAt := s.now().UTC()
	deliveries := make([]repository.DeliveryItems, 0, len(batch.Kinds))
	for _, kind := range batch.Kinds {
		if len(items[kind]) == 0 {
			continue
		}
		deliveries = append(deliveries, repository.DeliveryItems{
			Kind:       kind,
			ContentIDs: items[kind],
			StudentIDs: studentIDs,
			AssignedAt: assignedAt,
		})
	}

	created, err := s.assignments.CreateDeliveries(ctx, deliveries)
	if err != nil {
		return dto.DeliveryResponse{}, err
	}

	response := dto.DeliveryResponse{}
	for kind, count := range created {
		response.Created += count
		observability.AssignmentsDelivered().WithLabelValues(string(kind)).Add(float64(count))
	}

	s.logger.Info().
		Uint("teacher_id", actor.ID).
		Int("students", len(studentIDs)).
		Int("created", response.Created).
		Time("assigned_at", assignedAt).
		Msg("assignments delivered")

	if req.Notify && response.Created > 0 {
		response.Notified = s.dispatcher.SendToMany(ctx, tokensOf(students), push.Message{
			Title: "🇯🇵 新しい日本語課題が届きました",
			Body:  fmt.Sprintf("課題など %d件の課題が出されました。がんばりましょう！", total),
			Data:  map[string]string{"type": "japanese_assignment", "url": "/japanese"},
		})
	}

	return response, nil
}

func unique(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
