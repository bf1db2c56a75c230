package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/database"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/push"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

func newStudyDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, role, token string) models.User {
	t.Helper()
	user := models.User{Username: username, DisplayName: strings.ToUpper(username[:1]) + username[1:], Role: role}
	if token != "" {
		user.DeviceToken = &token
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createQuiz(t *testing.T, db *gorm.DB, word, correct string, wrong ...string) models.Quiz {
	t.Helper()
	quiz := models.Quiz{Word: word, CorrectReading: correct, Meaning: word}
	require.NoError(t, quiz.SetWrongReadings(wrong))
	require.NoError(t, db.Create(&quiz).Error)
	return quiz
}

func createQuizAssignment(t *testing.T, db *gorm.DB, studentID, quizID uint, at time.Time) batch.Record {
	t.Helper()
	row := models.QuizAssignment{AssignmentBase: models.AssignmentBase{StudentID: studentID, AssignedAt: at}, QuizID: quizID}
	require.NoError(t, db.Create(&row).Error)
	return row.ToRecord()
}

func studentActor(user models.User) Actor {
	return Actor{ID: user.ID, Role: models.RoleStudent}
}

func teacherActor(user models.User) Actor {
	return Actor{ID: user.ID, Role: models.RoleTeacher}
}

type dispatchCall struct {
	Tokens  []string
	Message push.Message
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

var _ push.Dispatcher = (*recordingDispatcher)(nil)

func (d *recordingDispatcher) Send(ctx context.Context, token string, msg push.Message) bool {
	return d.SendToMany(ctx, []string{token}, msg) == 1
}

func (d *recordingDispatcher) SendToMany(_ context.Context, tokens []string, msg push.Message) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := map[string]struct{}{}
	for _, token := range tokens {
		if token != "" {
			seen[token] = struct{}{}
		}
	}
	d.calls = append(d.calls, dispatchCall{Tokens: tokens, Message: msg})
	return len(seen)
}

type studyServices struct {
	db            *gorm.DB
	assignments   repository.AssignmentRepository
	tasks         *studentTaskService
	reviews       TeacherReviewService
	deliveries    *deliveryService
	notifications NotificationService
	dispatcher    *recordingDispatcher
}

func newStudyServices(t *testing.T, resolverWrap func(NotificationResolver) NotificationResolver) studyServices {
	t.Helper()
	db := newStudyDB(t)
	validate := validator.New()
	logger := zerolog.Nop()

	assignments := repository.NewAssignmentRepository(db)
	exercises := repository.NewExerciseRepository(db)
	users := repository.NewUserRepository(db)
	dispatcher := &recordingDispatcher{}

	resolver := NewNotificationResolver(repository.NewTargetRepository(db), users)
	if resolverWrap != nil {
		resolver = resolverWrap(resolver)
	}

	tasks := NewStudentTaskService(assignments, exercises, validate, logger).(*studentTaskService)
	tasks.shuffle = func([]string) {}

	return studyServices{
		db:            db,
		assignments:   assignments,
		tasks:         tasks,
		reviews:       NewTeacherReviewService(assignments, users, validate, logger),
		deliveries:    NewDeliveryService(assignments, exercises, users, dispatcher, validate, logger).(*deliveryService),
		notifications: NewNotificationService(repository.NewNotificationRepository(db), resolver, dispatcher, validate, time.FixedZone("JST", 9*60*60), logger),
		dispatcher:    dispatcher,
	}
}

func repositoryTargets(svc studyServices) repository.TargetRepository {
	return repository.NewTargetRepository(svc.db)
}

func repositoryUsers(svc studyServices) repository.UserRepository {
	return repository.NewUserRepository(svc.db)
}
