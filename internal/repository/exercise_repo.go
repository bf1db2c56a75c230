package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/models"
)

// ExerciseRepository reads the content behind assignments.
type ExerciseRepository interface {
	GetQuiz(ctx context.Context, id uint) (models.Quiz, error)
	GetFlashcard(ctx context.Context, id uint) (models.Flashcard, error)
	GetWriting(ctx context.Context, id uint) (models.Writing, error)
	// ExistingIDs returns the subset of ids that exist for the kind.
	ExistingIDs(ctx context.Context, kind batch.Kind, ids []uint) ([]uint, error)
}

type exerciseRepository struct {
	db *gorm.DB
}

// NewExerciseRepository constructs an exercise repository.
func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepository{db: db}
}

func (r *exerciseRepository) GetQuiz(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *exerciseRepository) GetFlashcard(ctx context.Context, id uint) (models.Flashcard, error) {
	var card models.Flashcard
	if err := r.db.WithContext(ctx).First(&card, id).Error; err != nil {
		return models.Flashcard{}, err
	}
	return card, nil
}

func (r *exerciseRepository) GetWriting(ctx context.Context, id uint) (models.Writing, error) {
	var writing models.Writing
	if err := r.db.WithContext(ctx).First(&writing, id).Error; err != nil {
		return models.Writing{}, err
	}
	return writing, nil
}

func (r *exerciseRepository) ExistingIDs(ctx context.Context, kind batch.Kind, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return []uint{}, nil
	}

	var model interface{}
	switch kind {
	case batch.KindQuiz:
		model = &models.Quiz{}
	case batch.KindFlashcard:
		model = &models.Flashcard{}
	case batch.KindWriting:
		model = &models.Writing{}
	default:
		return nil, gorm.ErrInvalidValue
	}

	var found []uint
	if err := r.db.WithContext(ctx).Model(model).Where("id IN ?", ids).Order("id ASC").Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}
