package batch

import (
	"strings"
	"time"
)

// Kind identifies which exercise stream an assignment record belongs to.
type Kind string

const (
	KindQuiz      Kind = "quiz"
	KindFlashcard Kind = "flashcard"
	KindWriting   Kind = "writing"
)

// Kinds lists every assignment kind in presentation order.
var Kinds = []Kind{KindQuiz, KindFlashcard, KindWriting}

// ParseKind normalises user input into a known kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindQuiz:
		return KindQuiz, true
	case KindFlashcard:
		return KindFlashcard, true
	case KindWriting:
		return KindWriting, true
	default:
		return "", false
	}
}

func (k Kind) rank() int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// Record is the kind-agnostic view of a single student assignment.
// IsCorrect is only ever set for quizzes and ResultPayload only for writings.
type Record struct {
	ID              uint       `json:"id"`
	Kind            Kind       `json:"kind"`
	StudentID       uint       `json:"student_id"`
	ContentRef      uint       `json:"content_ref"`
	AssignedAt      time.Time  `json:"assigned_at"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	IsCorrect       *bool      `json:"is_correct,omitempty"`
	ResultPayload   *string    `json:"-"`
	StudentComment  *string    `json:"student_comment,omitempty"`
	TeacherFeedback *string    `json:"teacher_feedback,omitempty"`
	FeedbackSeen    bool       `json:"feedback_seen"`
}

// HasFeedback reports whether teacher feedback is set. Blank text is rejected
// when feedback is saved, so only nil means absent.
func (r Record) HasFeedback() bool {
	return r.TeacherFeedback != nil
}

// HasUnseenFeedback reports whether feedback exists that the student has not opened yet.
func (r Record) HasUnseenFeedback() bool {
	return r.HasFeedback() && !r.FeedbackSeen
}

// Complete marks the record done. It returns false when it was already completed.
func (r *Record) Complete(at time.Time) bool {
	if r.Completed {
		return false
	}
	completedAt := at
	r.Completed = true
	r.CompletedAt = &completedAt
	return true
}

// MarkFeedbackSeen flips the one-way seen flag. It returns true when the flag changed.
func (r *Record) MarkFeedbackSeen() bool {
	if !r.HasFeedback() || r.FeedbackSeen {
		return false
	}
	r.FeedbackSeen = true
	return true
}

func less(a, b Record) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Kind.rank() < b.Kind.rank()
}
