package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads vocabulary and announcements for development and
// classroom setup.
type SeedService interface {
	Import(ctx context.Context, token string, req dto.SeedContentRequest) (repository.ImportCounts, error)
}

type seedService struct {
	content   repository.ContentRepository
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(content repository.ContentRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		content:   content,
		validator: validate,
		enabled:   enabled,
		token:     strings.TrimSpace(token),
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) Import(ctx context.Context, token string, req dto.SeedContentRequest) (repository.ImportCounts, error) {
	if !s.enabled {
		return repository.ImportCounts{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return repository.ImportCounts{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return repository.ImportCounts{}, err
	}

	content, err := toContentImport(req)
	if err != nil {
		return repository.ImportCounts{}, err
	}

	counts, err := s.content.Import(ctx, content)
	if err != nil {
		return repository.ImportCounts{}, fmt.Errorf("import content: %w", err)
	}

	s.logger.Info().
		Int64("quizzes", counts.Quizzes).
		Int64("flashcards", counts.Flashcards).
		Int64("writings", counts.Writings).
		Int64("announcements", counts.Announcements).
		Msg("content seeded")
	return counts, nil
}

func (s *seedService) validateToken(token string) bool {
	if s.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(strings.TrimSpace(token))) == 1
}

func toContentImport(req dto.SeedContentRequest) (repository.ContentImport, error) {
	var content repository.ContentImport

	for _, item := range req.Quizzes {
		quiz := models.Quiz{
			Word:           strings.TrimSpace(item.Word),
			CorrectReading: strings.TrimSpace(item.CorrectReading),
			Meaning:        item.Meaning,
			Example:        item.Example,
		}
		if err := quiz.SetWrongReadings(item.WrongReadings); err != nil {
			return repository.ContentImport{}, err
		}
		content.Quizzes = append(content.Quizzes, quiz)
	}

	for _, item := range req.Flashcards {
		content.Flashcards = append(content.Flashcards, models.Flashcard{
			Word:    strings.TrimSpace(item.Word),
			Reading: strings.TrimSpace(item.Reading),
			Meaning: item.Meaning,
			Example: item.Example,
		})
	}

	for _, item := range req.Writings {
		content.Writings = append(content.Writings, models.Writing{
			Word:        strings.TrimSpace(item.Word),
			Reading:     strings.TrimSpace(item.Reading),
			Meaning:     item.Meaning,
			StrokeCount: item.StrokeCount,
		})
	}

	for _, item := range req.Announcements {
		announcement := models.Announcement{
			Title:     item.Title,
			Content:   item.Content,
			TeacherID: item.TeacherID,
			IsActive:  true,
			IsGlobal:  item.IsGlobal,
		}
		for _, id := range unique(item.RecipientIDs) {
			announcement.Recipients = append(announcement.Recipients, models.User{ID: id})
		}
		content.Announcements = append(content.Announcements, announcement)
	}

	return content, nil
}
