package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// TargetRepository loads the entities a scheduled notification can point at.
type TargetRepository interface {
	FindAnnouncement(ctx context.Context, id uint) (models.Announcement, error)
	FindProblem(ctx context.Context, id uint) (models.Problem, error)
	FindFeedback(ctx context.Context, id uint) (models.Feedback, error)
}

type targetRepository struct {
	db *gorm.DB
}

// NewTargetRepository constructs a target repository.
func NewTargetRepository(db *gorm.DB) TargetRepository {
	return &targetRepository{db: db}
}

func (r *targetRepository) FindAnnouncement(ctx context.Context, id uint) (models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.WithContext(ctx).Preload("Recipients").First(&announcement, id).Error; err != nil {
		return models.Announcement{}, err
	}
	return announcement, nil
}

func (r *targetRepository) FindProblem(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	if err := r.db.WithContext(ctx).Preload("AssignedStudents").First(&problem, id).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *targetRepository) FindFeedback(ctx context.Context, id uint) (models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).
		Preload("Answer").
		Preload("Answer.Student").
		Preload("Answer.Problem").
		First(&feedback, id).Error; err != nil {
		return models.Feedback{}, err
	}
	return feedback, nil
}
