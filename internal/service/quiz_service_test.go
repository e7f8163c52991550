package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type memQuizRepo struct {
	quizzes     map[string]models.Quiz
	questions   map[string][]models.Question
	submissions []models.QuizSubmission
}

func (m *memQuizRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	var result []models.Quiz
	for _, quiz := range m.quizzes {
		if quiz.CourseID == courseID {
			result = append(result, quiz)
		}
	}
	return result, nil
}

func (m *memQuizRepo) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	quiz, ok := m.quizzes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := quiz
	return &copied, nil
}

func (m *memQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	if m.quizzes == nil {
		m.quizzes = make(map[string]models.Quiz)
	}
	if quiz.ID == "" {
		quiz.ID = "quiz-" + quiz.Title
	}
	m.quizzes[quiz.ID] = *quiz
	return nil
}

func (m *memQuizRepo) Delete(ctx context.Context, id string) error {
	delete(m.quizzes, id)
	return nil
}

func (m *memQuizRepo) CreateQuestion(ctx context.Context, question *models.Question) error {
	if m.questions == nil {
		m.questions = make(map[string][]models.Question)
	}
	if question.ID == "" {
		question.ID = question.QuizID + "-q" + question.Text
	}
	m.questions[question.QuizID] = append(m.questions[question.QuizID], *question)
	return nil
}

func (m *memQuizRepo) QuestionsForQuiz(ctx context.Context, quizID string) ([]models.Question, error) {
	return m.questions[quizID], nil
}

func (m *memQuizRepo) CreateSubmission(ctx context.Context, submission *models.QuizSubmission) error {
	if submission.ID == "" {
		submission.ID = "sub"
	}
	m.submissions = append(m.submissions, *submission)
	return nil
}

func (m *memQuizRepo) DistinctSubmittedCount(ctx context.Context, studentID, courseID string) (int, error) {
	seen := map[string]bool{}
	for _, sub := range m.submissions {
		if sub.StudentID != studentID {
			continue
		}
		quiz, ok := m.quizzes[sub.QuizID]
		if !ok || quiz.CourseID != courseID {
			continue
		}
		seen[sub.QuizID] = true
	}
	return len(seen), nil
}

type memCourseReader struct {
	courses map[string]models.Course
}

func (m *memCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := course
	return &copied, nil
}

func newQuizFixture(t *testing.T) (*QuizService, *memQuizRepo, *memBadgeRepo) {
	t.Helper()
	quizzes := &memQuizRepo{
		quizzes: map[string]models.Quiz{
			"quiz-1": {ID: "quiz-1", CourseID: "course-1", Title: "Additions"},
			"quiz-2": {ID: "quiz-2", CourseID: "course-1", Title: "Soustractions"},
		},
		questions: map[string][]models.Question{
			"quiz-1": {
				{ID: "q1", QuizID: "quiz-1", Text: "2+2 ?", Choice1: "3", Choice2: "4", Choice3: "5", Answer: "4"},
				{ID: "q2", QuizID: "quiz-1", Text: "1+1 ?", Choice1: "2", Choice2: "3", Choice3: "4", Answer: "2"},
			},
			"quiz-2": {
				{ID: "q3", QuizID: "quiz-2", Text: "5-2 ?", Choice1: "2", Choice2: "3", Choice3: "4", Answer: "3"},
			},
		},
	}
	courses := &memCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Name: "Calcul mental", ClassLevel: "CE2"},
	}}
	badges := &memBadgeRepo{}
	svc := NewQuizService(quizzes, courses, badges, nil, nil)
	return svc, quizzes, badges
}

func TestSubmitQuizScoresOnTenPointScale(t *testing.T) {
	svc, quizzes, _ := newQuizFixture(t)

	result, err := svc.Submit(context.Background(), "student-1", "quiz-1", SubmitQuizRequest{
		Answers: map[string]string{"q1": "4", "q2": "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)
	require.NotNil(t, result.Submission.Score)
	assert.InDelta(t, 5.0, *result.Submission.Score, 0.001)
	assert.Len(t, quizzes.submissions, 1)
}

func TestSubmitQuizAllowsRepeatAttempts(t *testing.T) {
	svc, quizzes, _ := newQuizFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "student-1", "quiz-1", SubmitQuizRequest{Answers: map[string]string{"q1": "4"}})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "student-1", "quiz-1", SubmitQuizRequest{Answers: map[string]string{"q1": "4", "q2": "2"}})
	require.NoError(t, err)

	assert.Len(t, quizzes.submissions, 2)
}

func TestSubmitQuizAwardsCompletionBadgeOnce(t *testing.T) {
	svc, _, badges := newQuizFixture(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, "student-1", "quiz-1", SubmitQuizRequest{Answers: map[string]string{"q1": "4"}})
	require.NoError(t, err)
	assert.False(t, result.CourseCompleted)
	assert.Empty(t, badges.badges)

	result, err = svc.Submit(ctx, "student-1", "quiz-2", SubmitQuizRequest{Answers: map[string]string{"q3": "3"}})
	require.NoError(t, err)
	assert.True(t, result.CourseCompleted)
	assert.Len(t, badges.badges, 1)

	// A further attempt does not duplicate the badge.
	result, err = svc.Submit(ctx, "student-1", "quiz-1", SubmitQuizRequest{Answers: map[string]string{"q1": "4"}})
	require.NoError(t, err)
	assert.False(t, result.CourseCompleted)
	assert.Len(t, badges.badges, 1)
}

func TestSubmitUnknownQuiz(t *testing.T) {
	svc, _, _ := newQuizFixture(t)

	_, err := svc.Submit(context.Background(), "student-1", "missing", SubmitQuizRequest{Answers: map[string]string{"q1": "4"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateQuizRejectsAnswerOutsideChoices(t *testing.T) {
	svc, _, _ := newQuizFixture(t)

	_, err := svc.Create(context.Background(), CreateQuizRequest{
		CourseID: "course-1",
		Title:    "Multiplications",
		Questions: []CreateQuestionRequest{
			{Text: "2x3 ?", Choice1: "5", Choice2: "6", Choice3: "7", Answer: "8"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
