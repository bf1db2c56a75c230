package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationKind identifies what a scheduled notification points at.
type NotificationKind string

const (
	NotificationAnnouncement NotificationKind = "announcement"
	NotificationProblem      NotificationKind = "problem"
	NotificationFeedback     NotificationKind = "feedback"
)

// Valid reports whether the kind has a resolver.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationAnnouncement, NotificationProblem, NotificationFeedback:
		return true
	default:
		return false
	}
}

// ScheduledNotification is a deferred push intent. It transitions from
// pending to sent exactly once and is never deleted.
type ScheduledNotification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	NotificationType NotificationKind `gorm:"size:50;not null" json:"notification_type"`
	TargetID         uint             `gorm:"not null" json:"target_id"`
	ScheduledAt      time.Time        `gorm:"not null;index:idx_scheduled_pending,priority:2" json:"scheduled_at"`
	IsSent           bool             `gorm:"not null;default:false;index:idx_scheduled_pending,priority:1" json:"is_sent"`
	SentAt           *time.Time       `json:"sent_at"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Announcement is a teacher broadcast, either global or for selected students.
type Announcement struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	TeacherID  uint      `gorm:"not null;index" json:"teacher_id"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	IsGlobal   bool      `gorm:"not null;default:false" json:"is_global"`
	Recipients []User    `gorm:"many2many:announcement_recipients;joinForeignKey:AnnouncementID;joinReferences:StudentID" json:"recipients,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Problem is a free-form exercise assigned to selected students.
type Problem struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"size:200;not null" json:"title"`
	Content          string         `gorm:"type:text;not null" json:"content"`
	TeacherID        uint           `gorm:"not null;index" json:"teacher_id"`
	Deadline         *time.Time     `json:"deadline"`
	Choices          datatypes.JSON `gorm:"type:json" json:"choices,omitempty"`
	AssignedStudents []User         `gorm:"many2many:problem_assignments;joinForeignKey:ProblemID;joinReferences:StudentID" json:"assigned_students,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Answer is a student's response to a problem.
type Answer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProblemID   uint      `gorm:"not null;index" json:"problem_id"`
	StudentID   uint      `gorm:"not null;index" json:"student_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
	Problem     Problem   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Student     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Feedback is a teacher's reply to an answer.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"not null;index" json:"answer_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Score     *int      `json:"score"`
	Answer    Answer    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
