package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// ContentImport is one batch of vocabulary and announcements to load.
type ContentImport struct {
	Quizzes       []models.Quiz
	Flashcards    []models.Flashcard
	Writings      []models.Writing
	Announcements []models.Announcement
}

// ImportCounts reports rows written per table.
type ImportCounts struct {
	Quizzes       int64 `json:"quizzes"`
	Flashcards    int64 `json:"flashcards"`
	Writings      int64 `json:"writings"`
	Announcements int64 `json:"announcements"`
}

// ContentRepository bulk-loads assignable content.
type ContentRepository interface {
	// Import upserts exercises by word and inserts announcements, all in one
	// transaction.
	Import(ctx context.Context, content ContentImport) (ImportCounts, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository constructs a content repository.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Import(ctx context.Context, content ContentImport) (ImportCounts, error) {
	var counts ImportCounts

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if counts.Quizzes, err = upsertByWord(tx, content.Quizzes, "correct_reading", "wrong_readings", "meaning", "example"); err != nil {
			return err
		}
		if counts.Flashcards, err = upsertByWord(tx, content.Flashcards, "reading", "meaning", "example"); err != nil {
			return err
		}
		if counts.Writings, err = upsertByWord(tx, content.Writings, "reading", "meaning", "stroke_count"); err != nil {
			return err
		}

		if len(content.Announcements) > 0 {
			// recipients reference existing users; only the join rows are written
			result := tx.Omit("Recipients.*").Create(&content.Announcements)
			if result.Error != nil {
				return result.Error
			}
			counts.Announcements = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return ImportCounts{}, err
	}

	return counts, nil
}

func upsertByWord[T any](tx *gorm.DB, items []T, columns ...string) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "word"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&items)
	return result.RowsAffected, result.Error
}
