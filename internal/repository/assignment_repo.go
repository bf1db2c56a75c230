package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/models"
)

// DeliveryItems lists the content ids of one kind handed to a set of students.
type DeliveryItems struct {
	Kind       batch.Kind
	ContentIDs []uint
	StudentIDs []uint
	AssignedAt time.Time
}

// AssignmentRepository persists assignment records of every kind. Writes are
// split by owner: students write completion columns and the seen flag,
// teachers write feedback, and neither path touches the other's columns.
type AssignmentRepository interface {
	// ListByStudent returns records ordered by assigned_at desc, id asc.
	ListByStudent(ctx context.Context, studentID uint, kind batch.Kind) ([]batch.Record, error)
	// ListPending returns the student's uncompleted records ordered by id asc.
	ListPending(ctx context.Context, studentID uint, kind batch.Kind) ([]batch.Record, error)
	ListCompleted(ctx context.Context, kind batch.Kind) ([]batch.Record, error)
	Get(ctx context.Context, kind batch.Kind, id uint) (batch.Record, error)
	// SaveCompletion writes the completion columns of a still pending record.
	// It reports false when the record was already completed.
	SaveCompletion(ctx context.Context, record batch.Record) (bool, error)
	// SaveFeedback overwrites teacher_feedback only.
	SaveFeedback(ctx context.Context, kind batch.Kind, id uint, feedback string) error
	// MarkFeedbackSeen sets feedback_seen when feedback exists and was unseen.
	MarkFeedbackSeen(ctx context.Context, kind batch.Kind, id uint) (bool, error)
	// CreateDeliveries inserts every delivery in one transaction and returns
	// the number of created records per kind.
	CreateDeliveries(ctx context.Context, deliveries []DeliveryItems) (map[batch.Kind]int, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

type assignmentRow interface {
	models.QuizAssignment | models.FlashcardAssignment | models.WritingAssignment
	ToRecord() batch.Record
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) ListByStudent(ctx context.Context, studentID uint, kind batch.Kind) ([]batch.Record, error) {
	query := func(db *gorm.DB) *gorm.DB {
		return db.Where("student_id = ?", studentID).Order("assigned_at DESC").Order("id ASC")
	}
	return r.list(ctx, kind, query)
}

func (r *assignmentRepository) ListPending(ctx context.Context, studentID uint, kind batch.Kind) ([]batch.Record, error) {
	query := func(db *gorm.DB) *gorm.DB {
		return db.Where("student_id = ? AND completed = ?", studentID, false).Order("id ASC")
	}
	return r.list(ctx, kind, query)
}

func (r *assignmentRepository) ListCompleted(ctx context.Context, kind batch.Kind) ([]batch.Record, error) {
	query := func(db *gorm.DB) *gorm.DB {
		return db.Where("completed = ?", true).Order("assigned_at DESC").Order("id ASC")
	}
	return r.list(ctx, kind, query)
}

func (r *assignmentRepository) list(ctx context.Context, kind batch.Kind, scope func(*gorm.DB) *gorm.DB) ([]batch.Record, error) {
	db := scope(r.db.WithContext(ctx))
	switch kind {
	case batch.KindQuiz:
		return findRecords[models.QuizAssignment](db)
	case batch.KindFlashcard:
		return findRecords[models.FlashcardAssignment](db)
	case batch.KindWriting:
		return findRecords[models.WritingAssignment](db)
	default:
		return nil, fmt.Errorf("unknown assignment kind %q", kind)
	}
}

func (r *assignmentRepository) Get(ctx context.Context, kind batch.Kind, id uint) (batch.Record, error) {
	db := r.db.WithContext(ctx)
	switch kind {
	case batch.KindQuiz:
		return firstRecord[models.QuizAssignment](db, id)
	case batch.KindFlashcard:
		return firstRecord[models.FlashcardAssignment](db, id)
	case batch.KindWriting:
		return firstRecord[models.WritingAssignment](db, id)
	default:
		return batch.Record{}, fmt.Errorf("unknown assignment kind %q", kind)
	}
}

func (r *assignmentRepository) SaveCompletion(ctx context.Context, record batch.Record) (bool, error) {
	if !record.Completed {
		return false, fmt.Errorf("assignment %d is not completed", record.ID)
	}

	updates := map[string]interface{}{
		"completed":       true,
		"completed_at":    record.CompletedAt,
		"student_comment": record.StudentComment,
	}
	switch record.Kind {
	case batch.KindQuiz:
		updates["is_correct"] = record.IsCorrect
	case batch.KindWriting:
		updates["result_payload"] = record.ResultPayload
	}

	model, err := modelFor(record.Kind)
	if err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).Model(model).
		Where("id = ? AND completed = ?", record.ID, false).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *assignmentRepository) SaveFeedback(ctx context.Context, kind batch.Kind, id uint, feedback string) error {
	model, err := modelFor(kind)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Update("teacher_feedback", feedback)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepository) MarkFeedbackSeen(ctx context.Context, kind batch.Kind, id uint) (bool, error) {
	model, err := modelFor(kind)
	if err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).Model(model).
		Where("id = ? AND teacher_feedback IS NOT NULL AND feedback_seen = ?", id, false).
		Update("feedback_seen", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateDeliveries inserts one record per (content, student) pair that does
// not exist yet. Rows of one delivery share its AssignedAt.
func (r *assignmentRepository) CreateDeliveries(ctx context.Context, deliveries []DeliveryItems) (map[batch.Kind]int, error) {
	created := make(map[batch.Kind]int, len(deliveries))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, items := range deliveries {
			count, err := createDelivery(tx, items)
			if err != nil {
				return fmt.Errorf("deliver %s: %w", items.Kind, err)
			}
			created[items.Kind] += count
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func createDelivery(tx *gorm.DB, items DeliveryItems) (int, error) {
	column, err := contentColumn(items.Kind)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, contentID := range items.ContentIDs {
		for _, studentID := range items.StudentIDs {
			row := newAssignmentRow(items.Kind, contentID, studentID, items.AssignedAt)

			var existing int64
			if err := tx.Model(row).Where(column+" = ? AND student_id = ?", contentID, studentID).Count(&existing).Error; err != nil {
				return 0, err
			}
			if existing > 0 {
				continue
			}

			if err := tx.Create(row).Error; err != nil {
				return 0, err
			}
			created++
		}
	}
	return created, nil
}

func findRecords[T assignmentRow](db *gorm.DB) ([]batch.Record, error) {
	var rows []T
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]batch.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToRecord())
	}
	return records, nil
}

func firstRecord[T assignmentRow](db *gorm.DB, id uint) (batch.Record, error) {
	var row T
	if err := db.First(&row, id).Error; err != nil {
		return batch.Record{}, err
	}
	return row.ToRecord(), nil
}

func modelFor(kind batch.Kind) (interface{}, error) {
	switch kind {
	case batch.KindQuiz:
		return &models.QuizAssignment{}, nil
	case batch.KindFlashcard:
		return &models.FlashcardAssignment{}, nil
	case batch.KindWriting:
		return &models.WritingAssignment{}, nil
	default:
		return nil, fmt.Errorf("unknown assignment kind %q", kind)
	}
}

func contentColumn(kind batch.Kind) (string, error) {
	switch kind {
	case batch.KindQuiz:
		return "quiz_id", nil
	case batch.KindFlashcard:
		return "flashcard_id", nil
	case batch.KindWriting:
		return "writing_id", nil
	default:
		return "", fmt.Errorf("unknown assignment kind %q", kind)
	}
}

func newAssignmentRow(kind batch.Kind, contentID, studentID uint, assignedAt time.Time) interface{} {
	base := models.AssignmentBase{StudentID: studentID, AssignedAt: assignedAt}
	switch kind {
	case batch.KindQuiz:
		return &models.QuizAssignment{AssignmentBase: base, QuizID: contentID}
	case batch.KindFlashcard:
		return &models.FlashcardAssignment{AssignmentBase: base, FlashcardID: contentID}
	default:
		return &models.WritingAssignment{AssignmentBase: base, WritingID: contentID}
	}
}
