package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
)

func TestQuizRepositoryCreateSubmission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectExec("INSERT INTO quiz_submissions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	score := 7.5
	submission := &models.QuizSubmission{StudentID: "student-1", QuizID: "quiz-1", Score: &score}
	err := repo.CreateSubmission(context.Background(), submission)
	require.NoError(t, err)
	assert.NotEmpty(t, submission.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryDistinctSubmittedCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(DISTINCT qs.quiz_id\\)").
		WithArgs("student-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.DistinctSubmittedCount(context.Background(), "student-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryQuestionsForQuiz(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery("SELECT id, quiz_id, text, choice_1, choice_2, choice_3, answer").
		WithArgs("quiz-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "text", "choice_1", "choice_2", "choice_3", "answer"}).
			AddRow("q1", "quiz-1", "2+2 ?", "3", "4", "5", "4"))

	questions, err := repo.QuestionsForQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "4", questions[0].Answer)
	assert.Equal(t, []string{"3", "4", "5"}, questions[0].Choices())
	assert.NoError(t, mock.ExpectationsWereMet())
}
