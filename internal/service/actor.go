package service

import "github.com/noah-isme/gema-study-api/internal/models"

const roleSystem = "system"

// Actor is the authenticated identity an operation runs on behalf of.
type Actor struct {
	ID   uint
	Role string
}

// SystemActor identifies background jobs such as the notification sweeper.
func SystemActor() Actor {
	return Actor{Role: roleSystem}
}

// IsTeacher reports whether the actor may deliver work, review and notify.
func (a Actor) IsTeacher() bool {
	return a.ID != 0 && (a.Role == models.RoleTeacher || a.Role == models.RoleAdmin)
}

// IsStudent reports whether the actor works on assignments.
func (a Actor) IsStudent() bool {
	return a.ID != 0 && a.Role == models.RoleStudent
}

func (a Actor) IsSystem() bool {
	return a.Role == roleSystem
}

// owns reports whether the actor is the student a record belongs to.
func (a Actor) owns(studentID uint) bool {
	return a.IsStudent() && a.ID == studentID
}
