package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

// ErrEmptyFeedback rejects feedback that is blank once markup is stripped.
var ErrEmptyFeedback = errors.New("feedback must not be empty")

// TeacherReviewService lets teachers review completed work and leave feedback.
// Feedback writes touch teacher_feedback only, so they never race with the
// student's completion or seen-flag writes.
type TeacherReviewService interface {
	SaveFeedback(ctx context.Context, actor Actor, req dto.FeedbackRequest) (dto.AssignmentResponse, error)
	// SaveFeedbackBulk skips unknown records and returns how many were saved.
	SaveFeedbackBulk(ctx context.Context, actor Actor, req dto.BulkFeedbackRequest) (dto.BulkFeedbackResponse, error)
	// Reviews groups completed records of every kind by student and delivery,
	// newest delivery first.
	Reviews(ctx context.Context, actor Actor) ([]dto.ReviewBatch, error)
}

type teacherReviewService struct {
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewTeacherReviewService constructs the review service.
func NewTeacherReviewService(assignments repository.AssignmentRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) TeacherReviewService {
	return &teacherReviewService{
		assignments: assignments,
		users:       users,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "teacher_review_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-study-api/internal/service/teacher_review"),
	}
}

func (s *teacherReviewService) SaveFeedback(ctx context.Context, actor Actor, req dto.FeedbackRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !actor.IsTeacher() {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	record, err := s.saveOne(ctx, req)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", record.ID).
		Str("kind", string(record.Kind)).
		Uint("teacher_id", actor.ID).
		Msg("feedback saved")

	return dto.NewAssignmentResponse(record), nil
}

func (s *teacherReviewService) SaveFeedbackBulk(ctx context.Context, actor Actor, req dto.BulkFeedbackRequest) (dto.BulkFeedbackResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.BulkFeedbackResponse{}, err
	}
	if !actor.IsTeacher() {
		return dto.BulkFeedbackResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "feedback.bulk", trace.WithAttributes(
		attribute.Int("feedback.items", len(req.Items)),
		attribute.Int64("feedback.teacher_id", int64(actor.ID)),
	))
	defer span.End()

	saved := 0
	for _, item := range req.Items {
		if _, err := s.saveOne(ctx, item); err != nil {
			if errors.Is(err, ErrAssignmentNotFound) || errors.Is(err, ErrEmptyFeedback) {
				s.logger.Debug().Err(err).Uint("assignment_id", item.AssignmentID).Str("kind", item.Kind).Msg("bulk feedback item skipped")
				continue
			}
			span.RecordError(err)
			return dto.BulkFeedbackResponse{Saved: saved}, err
		}
		saved++
	}

	s.logger.Info().Int("saved", saved).Int("requested", len(req.Items)).Uint("teacher_id", actor.ID).Msg("bulk feedback saved")
	return dto.BulkFeedbackResponse{Saved: saved}, nil
}

func (s *teacherReviewService) saveOne(ctx context.Context, req dto.FeedbackRequest) (batch.Record, error) {
	kind, ok := batch.ParseKind(req.Kind)
	if !ok {
		return batch.Record{}, ErrInvalidKind
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(req.Feedback))
	if text == "" {
		return batch.Record{}, ErrEmptyFeedback
	}

	if err := s.assignments.SaveFeedback(ctx, kind, req.AssignmentID, text); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return batch.Record{}, ErrAssignmentNotFound
		}
		return batch.Record{}, fmt.Errorf("save feedback: %w", err)
	}

	record, err := s.assignments.Get(ctx, kind, req.AssignmentID)
	if err != nil {
		return batch.Record{}, fmt.Errorf("reload feedback: %w", err)
	}
	return record, nil
}

func (s *teacherReviewService) Reviews(ctx context.Context, actor Actor) ([]dto.ReviewBatch, error) {
	if !actor.IsTeacher() {
		return nil, ErrForbidden
	}

	byStudent := make(map[uint][]batch.Record)
	for _, kind := range batch.Kinds {
		records, err := s.assignments.ListCompleted(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list completed %s: %w", kind, err)
		}
		for _, record := range records {
			byStudent[record.StudentID] = append(byStudent[record.StudentID], record)
		}
	}

	studentIDs := make([]uint, 0, len(byStudent))
	for id := range byStudent {
		studentIDs = append(studentIDs, id)
	}

	students, err := s.users.ListByIDs(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	names := make(map[uint]string, len(students))
	for _, student := range students {
		names[student.ID] = student.DisplayName
	}

	reviews := make([]dto.ReviewBatch, 0)
	for studentID, records := range byStudent {
		for _, b := range batch.GroupIntoBatches(records) {
			reviews = append(reviews, dto.ReviewBatch{
				StudentID:   studentID,
				StudentName: names[studentID],
				Key:         b.Key,
				AssignedAt:  b.Bucket,
				HasFeedback: b.HasFeedback(),
				Items:       dto.NewAssignmentResponseSlice(b.Items),
			})
		}
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].AssignedAt.Equal(reviews[j].AssignedAt) {
			return reviews[i].AssignedAt.After(reviews[j].AssignedAt)
		}
		return reviews[i].StudentID < reviews[j].StudentID
	})

	return reviews, nil
}
