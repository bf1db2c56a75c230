package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/push"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

// ErrTargetNotFound indicates the entity a notification points at is gone.
var ErrTargetNotFound = errors.New("notification target not found")

const announcementBodyLimit = 100

// Rendered is a push message together with the device tokens it goes to.
type Rendered struct {
	Message push.Message
	Tokens  []string
}

// NotificationResolver loads a notification target and renders its push.
type NotificationResolver interface {
	Resolve(ctx context.Context, kind models.NotificationKind, targetID uint) (Rendered, error)
}

type notificationResolver struct {
	targets   repository.TargetRepository
	users     repository.UserRepository
	sanitizer *bluemonday.Policy
}

// NewNotificationResolver builds the resolver for announcements, problems and feedback.
func NewNotificationResolver(targets repository.TargetRepository, users repository.UserRepository) NotificationResolver {
	return &notificationResolver{
		targets:   targets,
		users:     users,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (r *notificationResolver) Resolve(ctx context.Context, kind models.NotificationKind, targetID uint) (Rendered, error) {
	switch kind {
	case models.NotificationAnnouncement:
		return r.announcement(ctx, targetID)
	case models.NotificationProblem:
		return r.problem(ctx, targetID)
	case models.NotificationFeedback:
		return r.feedback(ctx, targetID)
	default:
		return Rendered{}, fmt.Errorf("%w: unknown notification kind %q", ErrInvalidSchedule, kind)
	}
}

func (r *notificationResolver) announcement(ctx context.Context, id uint) (Rendered, error) {
	announcement, err := r.targets.FindAnnouncement(ctx, id)
	if err != nil {
		return Rendered{}, targetError("announcement", id, err)
	}

	recipients := announcement.Recipients
	if announcement.IsGlobal {
		recipients, err = r.users.ListStudents(ctx)
		if err != nil {
			return Rendered{}, fmt.Errorf("list students: %w", err)
		}
	}

	return Rendered{
		Message: push.Message{
			Title: "📢 " + r.plain(announcement.Title),
			Body:  truncateRunes(r.plain(announcement.Content), announcementBodyLimit),
			Data:  map[string]string{"type": "announcement", "url": "/dashboard"},
		},
		Tokens: tokensOf(recipients),
	}, nil
}

func (r *notificationResolver) problem(ctx context.Context, id uint) (Rendered, error) {
	problem, err := r.targets.FindProblem(ctx, id)
	if err != nil {
		return Rendered{}, targetError("problem", id, err)
	}

	return Rendered{
		Message: push.Message{
			Title: "📝 新しい問題が届きました",
			Body:  r.plain(problem.Title),
			Data:  map[string]string{"type": "problem", "url": fmt.Sprintf("/problem/%d", problem.ID)},
		},
		Tokens: tokensOf(problem.AssignedStudents),
	}, nil
}

func (r *notificationResolver) feedback(ctx context.Context, id uint) (Rendered, error) {
	feedback, err := r.targets.FindFeedback(ctx, id)
	if err != nil {
		return Rendered{}, targetError("feedback", id, err)
	}

	title := r.plain(feedback.Answer.Problem.Title)
	if title == "" {
		title = "問題"
	}

	return Rendered{
		Message: push.Message{
			Title: "📬 先生からフィードバックが届きました",
			Body:  title,
			Data:  map[string]string{"type": "feedback", "url": fmt.Sprintf("/problem/%d", feedback.Answer.ProblemID)},
		},
		Tokens: tokensOf([]models.User{feedback.Answer.Student}),
	}, nil
}

// plain strips markup and collapses whitespace. Tags are treated as word
// breaks so adjacent block elements do not run together.
func (r *notificationResolver) plain(value string) string {
	stripped := html.UnescapeString(r.sanitizer.Sanitize(strings.ReplaceAll(value, "<", " <")))
	return strings.Join(strings.Fields(stripped), " ")
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit]) + "..."
}

func tokensOf(users []models.User) []string {
	tokens := make([]string, 0, len(users))
	for _, user := range users {
		if token := user.Token(); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func targetError(kind string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrTargetNotFound, kind, id)
	}
	return fmt.Errorf("load %s %d: %w", kind, id, err)
}
