package models

import (
	"time"

	"github.com/noah-isme/gema-study-api/internal/batch"
)

// AssignmentBase holds the columns shared by every assignment kind.
type AssignmentBase struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	StudentID       uint       `gorm:"not null;index" json:"student_id"`
	AssignedAt      time.Time  `gorm:"not null;index" json:"assigned_at"`
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completed_at"`
	StudentComment  *string    `gorm:"type:text" json:"student_comment"`
	TeacherFeedback *string    `gorm:"type:text" json:"teacher_feedback"`
	FeedbackSeen    bool       `gorm:"not null;default:false" json:"feedback_seen"`
}

func (b AssignmentBase) record(kind batch.Kind, contentRef uint) batch.Record {
	return batch.Record{
		ID:              b.ID,
		Kind:            kind,
		StudentID:       b.StudentID,
		ContentRef:      contentRef,
		AssignedAt:      b.AssignedAt,
		Completed:       b.Completed,
		CompletedAt:     b.CompletedAt,
		StudentComment:  b.StudentComment,
		TeacherFeedback: b.TeacherFeedback,
		FeedbackSeen:    b.FeedbackSeen,
	}
}

// QuizAssignment delivers one quiz to one student.
type QuizAssignment struct {
	AssignmentBase
	QuizID    uint  `gorm:"not null;index" json:"quiz_id"`
	IsCorrect *bool `json:"is_correct"`
	Quiz      Quiz  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ToRecord converts the row into the kind-agnostic record.
func (a QuizAssignment) ToRecord() batch.Record {
	record := a.record(batch.KindQuiz, a.QuizID)
	record.IsCorrect = a.IsCorrect
	return record
}

// FlashcardAssignment delivers one flashcard to one student.
type FlashcardAssignment struct {
	AssignmentBase
	FlashcardID uint      `gorm:"not null;index" json:"flashcard_id"`
	Flashcard   Flashcard `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ToRecord converts the row into the kind-agnostic record.
func (a FlashcardAssignment) ToRecord() batch.Record {
	return a.record(batch.KindFlashcard, a.FlashcardID)
}

// WritingAssignment delivers one writing drill to one student.
type WritingAssignment struct {
	AssignmentBase
	WritingID     uint    `gorm:"not null;index" json:"writing_id"`
	ResultPayload *string `gorm:"type:text" json:"-"`
	Writing       Writing `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ToRecord converts the row into the kind-agnostic record.
func (a WritingAssignment) ToRecord() batch.Record {
	record := a.record(batch.KindWriting, a.WritingID)
	record.ResultPayload = a.ResultPayload
	return record
}
