package dto

import (
	"time"

	"github.com/noah-isme/gema-study-api/internal/batch"
)

// AssignmentResponse is the student- and teacher-facing view of one record.
type AssignmentResponse struct {
	ID              uint       `json:"id"`
	Kind            string     `json:"kind"`
	StudentID       uint       `json:"student_id"`
	ContentID       uint       `json:"content_id"`
	AssignedAt      time.Time  `json:"assigned_at"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	IsCorrect       *bool      `json:"is_correct,omitempty"`
	HasResult       bool       `json:"has_result"`
	StudentComment  *string    `json:"student_comment,omitempty"`
	TeacherFeedback *string    `json:"teacher_feedback,omitempty"`
	FeedbackSeen    bool       `json:"feedback_seen"`
}

// NewAssignmentResponse maps a record into its response form.
func NewAssignmentResponse(record batch.Record) AssignmentResponse {
	return AssignmentResponse{
		ID:              record.ID,
		Kind:            string(record.Kind),
		StudentID:       record.StudentID,
		ContentID:       record.ContentRef,
		AssignedAt:      record.AssignedAt,
		Completed:       record.Completed,
		CompletedAt:     record.CompletedAt,
		IsCorrect:       record.IsCorrect,
		HasResult:       record.ResultPayload != nil,
		StudentComment:  record.StudentComment,
		TeacherFeedback: record.TeacherFeedback,
		FeedbackSeen:    record.FeedbackSeen,
	}
}

// NewAssignmentResponseSlice maps a list of records.
func NewAssignmentResponseSlice(records []batch.Record) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(records))
	for _, record := range records {
		out = append(out, NewAssignmentResponse(record))
	}
	return out
}

// DashboardBatch summarises one inferred delivery for the student dashboard.
type DashboardBatch struct {
	Key               string    `json:"key"`
	AssignedAt        time.Time `json:"assigned_at"`
	AssignmentID      uint      `json:"assignment_id"`
	Total             int       `json:"total"`
	CompletedCount    int       `json:"completed_count"`
	IsCompleted       bool      `json:"is_completed"`
	HasFeedback       bool      `json:"has_feedback"`
	HasUnseenFeedback bool      `json:"has_unseen_feedback"`
}

// NewDashboardBatch derives the dashboard row for a batch.
func NewDashboardBatch(b batch.Batch) DashboardBatch {
	row := DashboardBatch{
		Key:               b.Key,
		AssignedAt:        b.Bucket,
		Total:             b.Total(),
		CompletedCount:    b.CompletedCount(),
		IsCompleted:       b.IsFullyComplete(),
		HasFeedback:       b.HasFeedback(),
		HasUnseenFeedback: b.HasUnseenFeedback(),
	}
	if item, ok := b.NextItem(); ok {
		row.AssignmentID = item.ID
	}
	return row
}

// DashboardSummary aggregates batch counts across all kinds.
type DashboardSummary struct {
	TotalBatches     int     `json:"total_batches"`
	CompletedBatches int     `json:"completed_batches"`
	FeedbackBatches  int     `json:"feedback_batches"`
	CompletionRate   float64 `json:"completion_rate"`
}

// StudentDashboardResponse lists the student's batches per kind.
type StudentDashboardResponse struct {
	Quizzes    []DashboardBatch `json:"quizzes"`
	Flashcards []DashboardBatch `json:"flashcards"`
	Writings   []DashboardBatch `json:"writings"`
	Summary    DashboardSummary `json:"summary"`
}

// NavigationResponse positions a task inside its batch.
type NavigationResponse struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	PrevID  *uint `json:"prev_id"`
	NextID  *uint `json:"next_id"`
}

// NewNavigationResponse converts a batch position.
func NewNavigationResponse(pos batch.Position) NavigationResponse {
	return NavigationResponse{
		Current: pos.Current(),
		Total:   pos.Total,
		PrevID:  pos.PrevID,
		NextID:  pos.NextID,
	}
}

// TaskResponse is returned when a student opens an assignment.
type TaskResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Navigation NavigationResponse `json:"navigation"`
	Content    interface{}        `json:"content"`
	Options    []string           `json:"options,omitempty"`
}

// QuizAnswerRequest carries the reading the student picked.
type QuizAnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=50"`
}

// QuizAnswerResponse reports the answer outcome and where to go next.
type QuizAnswerResponse struct {
	Correct   bool  `json:"correct"`
	Completed bool  `json:"completed"`
	NextID    *uint `json:"next_id"`
}

// CompleteRequest finishes a flashcard, writing or quiz manually.
type CompleteRequest struct {
	Comment       *string `json:"comment" validate:"omitempty,max=2000"`
	ResultPayload *string `json:"result_payload" validate:"omitempty,max=2000000"`
}

// CompleteResponse returns the saved record and the next item, if any.
type CompleteResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	NextID     *uint              `json:"next_id"`
}

// DeliveryRequest hands content items to a set of students.
type DeliveryRequest struct {
	QuizIDs      []uint `json:"quiz_ids" validate:"omitempty,dive,gt=0"`
	FlashcardIDs []uint `json:"flashcard_ids" validate:"omitempty,dive,gt=0"`
	WritingIDs   []uint `json:"writing_ids" validate:"omitempty,dive,gt=0"`
	StudentIDs   []uint `json:"student_ids" validate:"required,min=1,dive,gt=0"`
	Notify       bool   `json:"notify"`
}

// DeliveryResponse reports how many records and pushes a delivery produced.
type DeliveryResponse struct {
	Created  int `json:"created"`
	Notified int `json:"notified"`
}

// FeedbackRequest sets the teacher feedback of one record.
type FeedbackRequest struct {
	Kind         string `json:"kind" validate:"required,oneof=quiz flashcard writing"`
	AssignmentID uint   `json:"assignment_id" validate:"required,gt=0"`
	Feedback     string `json:"feedback" validate:"required,max=2000"`
}

// BulkFeedbackRequest saves several feedback entries at once.
type BulkFeedbackRequest struct {
	Items []FeedbackRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

// BulkFeedbackResponse counts saved entries.
type BulkFeedbackResponse struct {
	Saved int `json:"saved"`
}

// ReviewBatch groups one student's completed work from a single delivery.
type ReviewBatch struct {
	StudentID   uint                 `json:"student_id"`
	StudentName string               `json:"student_name"`
	Key         string               `json:"key"`
	AssignedAt  time.Time            `json:"assigned_at"`
	HasFeedback bool                 `json:"has_feedback"`
	Items       []AssignmentResponse `json:"items"`
}

// NotifyRequest sends or schedules a push for an announcement, problem or feedback.
// ScheduledAt uses the local form 2006-01-02T15:04; empty means send now.
type NotifyRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=announcement problem feedback"`
	TargetID    uint   `json:"target_id" validate:"required,gt=0"`
	ScheduledAt string `json:"scheduled_at" validate:"omitempty,datetime=2006-01-02T15:04"`
}

// NotifyResponse describes the outcome of a notify request.
type NotifyResponse struct {
	Scheduled      bool       `json:"scheduled"`
	NotificationID *uint      `json:"notification_id,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	Delivered      int        `json:"delivered"`
}

// DeviceTokenRequest registers the caller's push token.
type DeviceTokenRequest struct {
	Token string `json:"token" validate:"required,max=500"`
}
