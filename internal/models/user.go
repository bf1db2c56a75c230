package models

import "time"

const (
	// RoleTeacher marks accounts that deliver work and leave feedback.
	RoleTeacher = "teacher"
	// RoleStudent marks accounts that receive assignments.
	RoleStudent = "student"
	// RoleAdmin has every teacher permission.
	RoleAdmin = "admin"
)

// User represents a teacher or student account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:80;uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	Role        string    `gorm:"size:20;not null;default:student;index" json:"role"`
	DeviceToken *string   `gorm:"size:500" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsTeacher reports whether the account belongs to a teacher.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

// Token returns the registered push token, or an empty string.
func (u User) Token() string {
	if u.DeviceToken == nil {
		return ""
	}
	return *u.DeviceToken
}
