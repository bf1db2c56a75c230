package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestOpenMarksFeedbackSeenOnceAndKeepsItAfterEdit(t *testing.T) {
	svc := newStudyServices(t, nil)
	ctx := context.Background()
	student := createUser(t, svc.db, "hana", models.RoleStudent, "")
	teacher := createUser(t, svc.db, "sensei", models.RoleTeacher, "")
	quiz := createQuiz(t, svc.db, "学校", "がっこう", "がくこう", "がっこ")

	at := time.Date(2024, 5, 1, 9, 3, 0, 0, time.UTC)
	record := createQuizAssignment(t, svc.db, student.ID, quiz.ID, at)

	_, err := svc.reviews.SaveFeedback(ctx, teacherActor(teacher), dto.FeedbackRequest{Kind: "quiz", AssignmentID: record.ID, Feedback: "good"})
	require.NoError(t, err)

	task, err := svc.tasks.Open(ctx, studentActor(student), batch.KindQuiz, record.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"がっこう", "がくこう", "がっこ"}, task.Options)

	stored, err := svc.assignments.Get(ctx, batch.KindQuiz, record.ID)
	require.NoError(t, err)
	require.True(t, stored.FeedbackSeen)

	_, err = svc.reviews.SaveFeedback(ctx, teacherActor(teacher), dto.FeedbackRequest{Kind: "quiz", AssignmentID: record.ID, Feedback: "even better"})
	require.NoError(t, err)

	stored, err = svc.assignments.Get(ctx, batch.KindQuiz, record.ID)
	require.NoError(t, err)
	require.True(t, stored.FeedbackSeen, "editing feedback must not reset the seen flag")
	require.Equal(t, "even better", *stored.TeacherFeedback)
}

func TestOpenRejectsOtherStudents(t *testing.T) {
	svc := newStudyServices(t, nil)
	ctx := context.Background()
	owner := createUser(t, svc.db, "hana", models.RoleStudent, "")
	other := createUser(t, svc.db, "ren", models.RoleStudent, "")
	quiz := createQuiz(t, svc.db, "電車", "でんしゃ")
	record := createQuizAssignment(t, svc.db, owner.ID, quiz.ID, time.Now())

	_, err := svc.tasks.Open(ctx, studentActor(other), batch.KindQuiz, record.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.tasks.Open(ctx, studentActor(owner), batch.KindQuiz, record.ID+100)
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	_, err = svc.tasks.Open(ctx, studentActor(owner), batch.Kind("essay"), record.ID)
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestOpenNavigatesWithinMinuteBucket(t *testing.T) {
	svc := newStudyServices(t, nil)
	ctx := context.Background()
	student := createUser(t, svc.db, "hana", models.RoleStudent, "")
	quiz := createQuiz(t, svc.db, "学校", "がっこう")

	morning := time.Date(2024, 5, 1, 9, 3, 0, 0, time.UTC)
	first := createQuizAssignment(t, svc.db, student.ID, quiz.ID, morning)
	second := createQuizAssignment(t, svc.db, student.ID, quiz.ID, morning.Add(20*time.Second))
	createQuizAssignment(t, svc.db, student.ID, quiz.ID, morning.Add(70*time.Second))

	task, err := svc.tasks.Open(ctx, studentActor(student), batch.KindQuiz, second.ID)
	require.NoError(t, err)
	require.Equal(t, 2, task.Navigation.Current)
	require.Equal(t, 2, task.Navigation.Total)
	require.NotNil(t, task.Navigation.PrevID)
	require.Equal(t, first.ID, *task.Navigation.PrevID)
	require.Nil(t, task.Navigation.NextID)
}

func TestAnswerQuizAdvancesToGlobalPending(t *testing.T) {
	svc := newStudyServices(t, nil)
	ctx := context.Background()
	student := createUser(t, svc.db, "hana", models.RoleStudent, "")
	quiz := createQuiz(t, svc.db, "学校", "がっこう", "がくこう")

	older := time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 5, 1, 9, 3, 0, 0, time.UTC)
	stale := createQuizAssignment(t, svc.db, student.ID, quiz.ID, older)
	current := createQuizAssignment(t, svc.db, student.ID, quiz.ID, newer)
	createQuizAssignment(t, svc.db, student.ID, quiz.ID, newer)

	wrong, err := svc.tasks.AnswerQuiz(ctx, studentActor(student), current.ID, dto.QuizAnswerRequest{Answer: "がくこう"})
	require.NoError(t, err)
	require.False(t, wrong.Correct)
	require.False(t, wrong.Completed)

	right, err := svc.tasks.AnswerQuiz(ctx, studentActor(student), current.ID, dto.QuizAnswerRequest{Answer: "がっこう"})
	require.NoError(t, err)
	require.True(t, right.Correct)
	require.True(t, right.Completed)
	require.NotNil(t, right.NextID)
	require.Equal(t, stale.ID, *right.NextID, "advance follows the lowest pending id, not the batch")

	stored, err := svc.assignments.Get(ctx, batch.KindQuiz, current.ID)
	require.NoError(t, err)
	require.True(t, stored.Completed)
	require.NotNil(t, stored.CompletedAt)
	require.NotNil(t, stored.IsCorrect)
	require.True(t, *stored.IsCorrect)

	again, err := svc.tasks.AnswerQuiz(ctx, studentActor(student), current.ID, dto.QuizAnswerRequest{Answer: "がっこう"})
	require.NoError(t, err)
	require.True(t, again.Completed)
	require.Nil(t, again.NextID)
}

func TestCompleteWritingStaysInsideBatch(t *testing.T) {
	svc := newStudyServices(t, nil)
	ctx := context.Background()
	student := createUser(t, svc.db, "hana", models.RoleStudent, "")
	writing := models.Writing{Word: "木", Reading: "き", Meaning: "tree"}
	require.NoError(t, svc.db.Create(&writing).Error)

	at := time.Date(2024, 5, 1, 9, 3, 0, 0, time.UTC)
	rows := []models.WritingAssignment{
		{AssignmentBase: models.AssignmentBase{StudentID: student.ID, AssignedAt: at.Add(-time.Hour)}, WritingID: writing.ID},
		{AssignmentBase: models.AssignmentBase{StudentID: student.ID, AssignedAt: at}, WritingID: writing.ID},
		{AssignmentBase: models.AssignmentBase{StudentID: student.ID, AssignedAt: at}, WritingID: writing.ID},
	}
	for i := range rows {
		require.NoError(t, svc.db.Create(&rows[i]).Error)
	}

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	comment := "<b>hard</b> one"
	resp, err := svc.tasks.Complete(ctx, studentActor(student), batch.KindWriting, rows[1].ID, dto.CompleteRequest{ResultPayload: &payload, Comment: &comment})
	require.NoError(t, err)
	require.True(t, resp.Assignment.Completed)
	require.True(t, resp.Assignment.HasResult)
	require.Equal(t, "hard one", *resp.Assignment.StudentComment)
	require.NotNil(t, resp.NextID)
	require.Equal(t, rows[2].ID, *resp.NextID)

	resp, err = svc.tasks.Complete(ctx, studentActor(student), batch.KindWriting, rows[2].ID, dto.CompleteRequest{})
	require.NoError(t, err)
	require.Nil(t, resp.NextID, "older batches are not offered after the last item")

	_, err = svc.tasks.Complete(ctx, studentActor(student), batch.KindWriting, rows[2].ID, dto.CompleteRequest{})
	require.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCompleteRejectsInvalidPayload(t *testing.T) {
	svc := newStudyServices(t, nil)
	ctx := context.Background()
	student := createUser(t, svc.db, "hana", models.RoleStudent, "")
	writing := models.Writing{Word: "木", Reading: "き", Meaning: "tree"}
	require.NoError(t, svc.db.Create(&writing).Error)
	row := models.WritingAssignment{AssignmentBase: models.AssignmentBase{StudentID: student.ID, AssignedAt: time.Now()}, WritingID: writing.ID}
	require.NoError(t, svc.db.Create(&row).Error)

	cases := map[string]string{
		"not a data url":   "https://example.com/a.png",
		"not base64":       "data:image/png;base64,@@@",
		"text disguised":   "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")),
		"non image mime":   "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
		"missing encoding": "data:image/png," + base64.StdEncoding.EncodeToString(pngHeader),
	}
	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			_, err := svc.tasks.Complete(ctx, studentActor(student), batch.KindWriting, row.ID, dto.CompleteRequest{ResultPayload: &payload})
			require.ErrorIs(t, err, ErrInvalidResultPayload)
		})
	}

	stored, err := svc.assignments.Get(ctx, batch.KindWriting, row.ID)
	require.NoError(t, err)
	require.False(t, stored.Completed, "rejected payloads leave the record untouched")
}

func TestDashboardSummarisesBatches(t *testing.T) {
	svc := newStudyServices(t, nil)
	ctx := context.Background()
	student := createUser(t, svc.db, "hana", models.RoleStudent, "")
	quiz := createQuiz(t, svc.db, "学校", "がっこう")

	at := time.Date(2024, 5, 1, 9, 3, 0, 0, time.UTC)
	done := createQuizAssignment(t, svc.db, student.ID, quiz.ID, at.Add(-time.Hour))
	require.True(t, done.Complete(at))
	saved, err := svc.assignments.SaveCompletion(ctx, done)
	require.NoError(t, err)
	require.True(t, saved)

	first := createQuizAssignment(t, svc.db, student.ID, quiz.ID, at)
	createQuizAssignment(t, svc.db, student.ID, quiz.ID, at)

	dashboard, err := svc.tasks.Dashboard(ctx, studentActor(student))
	require.NoError(t, err)
	require.Len(t, dashboard.Quizzes, 2)
	require.Empty(t, dashboard.Flashcards)
	require.Equal(t, first.ID, dashboard.Quizzes[0].AssignmentID)
	require.Equal(t, 2, dashboard.Quizzes[0].Total)
	require.False(t, dashboard.Quizzes[0].IsCompleted)
	require.True(t, dashboard.Quizzes[1].IsCompleted)
	require.Equal(t, done.ID, dashboard.Quizzes[1].AssignmentID)
	require.Equal(t, dto.DashboardSummary{TotalBatches: 2, CompletedBatches: 1, CompletionRate: 50}, dashboard.Summary)

	_, err = svc.tasks.Dashboard(ctx, Actor{ID: 1, Role: models.RoleTeacher})
	require.ErrorIs(t, err, ErrForbidden)
}
