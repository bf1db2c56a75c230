package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/observability"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

var (
	// ErrAssignmentNotFound indicates the record does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrForbidden indicates the actor may not touch the record.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidKind indicates an unknown assignment kind.
	ErrInvalidKind = errors.New("invalid assignment kind")
	// ErrAlreadyCompleted is returned when completing a finished record.
	ErrAlreadyCompleted = errors.New("assignment already completed")
	// ErrInvalidResultPayload rejects writing results that are not image data URLs.
	ErrInvalidResultPayload = errors.New("result payload must be a base64 image data url")
)

// StudentTaskService drives a student through their assignments.
type StudentTaskService interface {
	Dashboard(ctx context.Context, actor Actor) (dto.StudentDashboardResponse, error)
	Open(ctx context.Context, actor Actor, kind batch.Kind, id uint) (dto.TaskResponse, error)
	AnswerQuiz(ctx context.Context, actor Actor, id uint, req dto.QuizAnswerRequest) (dto.QuizAnswerResponse, error)
	Complete(ctx context.Context, actor Actor, kind batch.Kind, id uint, req dto.CompleteRequest) (dto.CompleteResponse, error)
}

type studentTaskService struct {
	assignments repository.AssignmentRepository
	exercises   repository.ExerciseRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
	shuffle     func([]string)
}

// NewStudentTaskService constructs the student-facing assignment service.
func NewStudentTaskService(assignments repository.AssignmentRepository, exercises repository.ExerciseRepository, validate *validator.Validate, logger zerolog.Logger) StudentTaskService {
	return &studentTaskService{
		assignments: assignments,
		exercises:   exercises,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "student_task_service").Logger(),
		now:         time.Now,
		shuffle: func(options []string) {
			rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		},
	}
}

func (s *studentTaskService) Dashboard(ctx context.Context, actor Actor) (dto.StudentDashboardResponse, error) {
	if !actor.IsStudent() {
		return dto.StudentDashboardResponse{}, ErrForbidden
	}

	response := dto.StudentDashboardResponse{}
	summary := dto.DashboardSummary{}

	for _, kind := range batch.Kinds {
		records, err := s.assignments.ListByStudent(ctx, actor.ID, kind)
		if err != nil {
			return dto.StudentDashboardResponse{}, fmt.Errorf("list %s assignments: %w", kind, err)
		}

		batches := batch.GroupIntoBatches(records)
		rows := make([]dto.DashboardBatch, 0, len(batches))
		for _, b := range batches {
			row := dto.NewDashboardBatch(b)
			rows = append(rows, row)

			summary.TotalBatches++
			if row.IsCompleted {
				summary.CompletedBatches++
			}
			if row.HasFeedback {
				summary.FeedbackBatches++
			}
		}

		switch kind {
		case batch.KindQuiz:
			response.Quizzes = rows
		case batch.KindFlashcard:
			response.Flashcards = rows
		case batch.KindWriting:
			response.Writings = rows
		}
	}

	if summary.TotalBatches > 0 {
		rate := float64(summary.CompletedBatches) / float64(summary.TotalBatches) * 100
		summary.CompletionRate = float64(int(rate*10+0.5)) / 10
	}
	response.Summary = summary

	return response, nil
}

func (s *studentTaskService) Open(ctx context.Context, actor Actor, kind batch.Kind, id uint) (dto.TaskResponse, error) {
	record, err := s.loadOwned(ctx, actor, kind, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	if record.MarkFeedbackSeen() {
		if _, err := s.assignments.MarkFeedbackSeen(ctx, kind, id); err != nil {
			return dto.TaskResponse{}, fmt.Errorf("mark feedback seen: %w", err)
		}
		s.logger.Debug().Uint("assignment_id", id).Str("kind", string(kind)).Msg("feedback marked seen")
	}

	siblings, err := s.assignments.ListByStudent(ctx, actor.ID, kind)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	position := batch.Locate(batch.FilterBucket(siblings, record), record.ID)

	response := dto.TaskResponse{
		Assignment: dto.NewAssignmentResponse(record),
		Navigation: dto.NewNavigationResponse(position),
	}

	switch kind {
	case batch.KindQuiz:
		quiz, err := s.exercises.GetQuiz(ctx, record.ContentRef)
		if err != nil {
			return dto.TaskResponse{}, fmt.Errorf("load quiz %d: %w", record.ContentRef, err)
		}
		options := quiz.Options()
		s.shuffle(options)
		response.Content = quiz
		response.Options = options
	case batch.KindFlashcard:
		card, err := s.exercises.GetFlashcard(ctx, record.ContentRef)
		if err != nil {
			return dto.TaskResponse{}, fmt.Errorf("load flashcard %d: %w", record.ContentRef, err)
		}
		response.Content = card
	case batch.KindWriting:
		writing, err := s.exercises.GetWriting(ctx, record.ContentRef)
		if err != nil {
			return dto.TaskResponse{}, fmt.Errorf("load writing %d: %w", record.ContentRef, err)
		}
		response.Content = writing
	}

	return response, nil
}

// AnswerQuiz checks the picked reading. A correct answer completes the quiz and
// advances to the lowest pending quiz id across all of the student's batches.
// A wrong answer changes nothing so the student can retry.
func (s *studentTaskService) AnswerQuiz(ctx context.Context, actor Actor, id uint, req dto.QuizAnswerRequest) (dto.QuizAnswerResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizAnswerResponse{}, err
	}

	record, err := s.loadOwned(ctx, actor, batch.KindQuiz, id)
	if err != nil {
		return dto.QuizAnswerResponse{}, err
	}

	quiz, err := s.exercises.GetQuiz(ctx, record.ContentRef)
	if err != nil {
		return dto.QuizAnswerResponse{}, fmt.Errorf("load quiz %d: %w", record.ContentRef, err)
	}

	if strings.TrimSpace(req.Answer) != quiz.CorrectReading {
		return dto.QuizAnswerResponse{Correct: false, Completed: record.Completed}, nil
	}
	if record.Completed {
		return dto.QuizAnswerResponse{Correct: true, Completed: true}, nil
	}

	correct := true
	record.Complete(s.now().UTC())
	record.IsCorrect = &correct
	saved, err := s.assignments.SaveCompletion(ctx, record)
	if err != nil {
		return dto.QuizAnswerResponse{}, err
	}
	if !saved {
		return dto.QuizAnswerResponse{Correct: true, Completed: true}, nil
	}
	observability.AssignmentsCompleted().WithLabelValues(string(batch.KindQuiz)).Inc()

	pending, err := s.assignments.ListPending(ctx, actor.ID, batch.KindQuiz)
	if err != nil {
		return dto.QuizAnswerResponse{}, err
	}

	response := dto.QuizAnswerResponse{Correct: true, Completed: true}
	if next, ok := batch.NextPending(pending, record.ID); ok {
		response.NextID = &next.ID
	}
	return response, nil
}

// Complete finishes a record without grading. Quizzes advance globally; other
// kinds advance within their own delivery and otherwise return no next id.
func (s *studentTaskService) Complete(ctx context.Context, actor Actor, kind batch.Kind, id uint, req dto.CompleteRequest) (dto.CompleteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CompleteResponse{}, err
	}

	record, err := s.loadOwned(ctx, actor, kind, id)
	if err != nil {
		return dto.CompleteResponse{}, err
	}
	if record.Completed {
		return dto.CompleteResponse{}, ErrAlreadyCompleted
	}

	if req.ResultPayload != nil {
		if kind != batch.KindWriting {
			return dto.CompleteResponse{}, ErrInvalidResultPayload
		}
		payload, err := validateResultPayload(*req.ResultPayload)
		if err != nil {
			return dto.CompleteResponse{}, err
		}
		record.ResultPayload = &payload
	}

	if req.Comment != nil {
		comment := strings.TrimSpace(s.sanitizer.Sanitize(*req.Comment))
		if comment != "" {
			record.StudentComment = &comment
		} else {
			record.StudentComment = nil
		}
	}

	record.Complete(s.now().UTC())
	saved, err := s.assignments.SaveCompletion(ctx, record)
	if err != nil {
		return dto.CompleteResponse{}, err
	}
	if !saved {
		return dto.CompleteResponse{}, ErrAlreadyCompleted
	}
	observability.AssignmentsCompleted().WithLabelValues(string(kind)).Inc()

	pending, err := s.assignments.ListPending(ctx, actor.ID, kind)
	if err != nil {
		return dto.CompleteResponse{}, err
	}
	if kind != batch.KindQuiz {
		pending = batch.FilterBucket(pending, record)
	}

	response := dto.CompleteResponse{Assignment: dto.NewAssignmentResponse(record)}
	if next, ok := batch.NextPending(pending, record.ID); ok {
		response.NextID = &next.ID
	}
	return response, nil
}

func (s *studentTaskService) loadOwned(ctx context.Context, actor Actor, kind batch.Kind, id uint) (batch.Record, error) {
	if _, ok := batch.ParseKind(string(kind)); !ok {
		return batch.Record{}, ErrInvalidKind
	}

	record, err := s.assignments.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return batch.Record{}, ErrAssignmentNotFound
		}
		return batch.Record{}, err
	}

	if !actor.owns(record.StudentID) {
		return batch.Record{}, ErrForbidden
	}
	return record, nil
}

// validateResultPayload accepts data:<image mime>;base64,<data> where the
// decoded bytes sniff as the declared image type.
func validateResultPayload(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	rest, ok := strings.CutPrefix(payload, "data:")
	if !ok {
		return "", ErrInvalidResultPayload
	}

	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", ErrInvalidResultPayload
	}
	declared, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(declared, "image/") {
		return "", ErrInvalidResultPayload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return "", ErrInvalidResultPayload
	}

	if detected := mimetype.Detect(data); !detected.Is(declared) {
		return "", fmt.Errorf("%w: declared %s, got %s", ErrInvalidResultPayload, declared, detected.String())
	}

	return payload, nil
}
