package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smounat/ecole-plus-api/internal/models"
)

// QuizRepository manages persistence for quizzes, questions and submissions.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// ListByCourse returns the quizzes attached to a course.
func (r *QuizRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	const query = `SELECT id, course_id, title, description, duration_minutes, created_at FROM quizzes WHERE course_id = $1 ORDER BY created_at ASC`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, courseID); err != nil {
		return nil, fmt.Errorf("list quizzes by course: %w", err)
	}
	return quizzes, nil
}

// FindByID fetches a quiz by ID.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	const query = `SELECT id, course_id, title, description, duration_minutes, created_at FROM quizzes WHERE id = $1 LIMIT 1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quizzes (id, course_id, title, description, duration_minutes, created_at)
        VALUES (:id, :course_id, :title, :description, :duration_minutes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// Delete removes a quiz and cascades to its questions.
func (r *QuizRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM quizzes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

// CreateQuestion inserts a question for a quiz.
func (r *QuizRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO questions (id, quiz_id, text, choice_1, choice_2, choice_3, answer, created_at)
        VALUES (:id, :quiz_id, :text, :choice_1, :choice_2, :choice_3, :answer, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// QuestionsForQuiz returns the questions of a quiz in creation order.
func (r *QuizRepository) QuestionsForQuiz(ctx context.Context, quizID string) ([]models.Question, error) {
	const query = `SELECT id, quiz_id, text, choice_1, choice_2, choice_3, answer, created_at FROM questions WHERE quiz_id = $1 ORDER BY created_at ASC`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, quizID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// CreateSubmission records a quiz attempt.
func (r *QuizRepository) CreateSubmission(ctx context.Context, submission *models.QuizSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quiz_submissions (id, student_id, quiz_id, score, submitted_at)
        VALUES (:id, :student_id, :quiz_id, :score, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// SubmissionsByStudent returns all attempts of a student, newest first.
func (r *QuizRepository) SubmissionsByStudent(ctx context.Context, studentID string) ([]models.QuizSubmission, error) {
	const query = `SELECT id, student_id, quiz_id, score, submitted_at FROM quiz_submissions WHERE student_id = $1 ORDER BY submitted_at DESC`
	var submissions []models.QuizSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, studentID); err != nil {
		return nil, fmt.Errorf("list submissions by student: %w", err)
	}
	return submissions, nil
}

// DistinctSubmittedCount counts how many different quizzes of a course the
// student has submitted at least once.
func (r *QuizRepository) DistinctSubmittedCount(ctx context.Context, studentID, courseID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT qs.quiz_id) FROM quiz_submissions qs
        JOIN quizzes q ON q.id = qs.quiz_id
        WHERE qs.student_id = $1 AND q.course_id = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentID, courseID); err != nil {
		return 0, fmt.Errorf("count distinct submissions: %w", err)
	}
	return total, nil
}

// CountByTeacher returns the number of quizzes across a teacher's courses.
func (r *QuizRepository) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM quizzes q JOIN courses c ON c.id = q.course_id WHERE c.teacher_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, teacherID); err != nil {
		return 0, fmt.Errorf("count quizzes by teacher: %w", err)
	}
	return total, nil
}

// Count returns the total number of quizzes.
func (r *QuizRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM quizzes"); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return total, nil
}
