package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type quizRepo interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error)
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id string) error
	CreateQuestion(ctx context.Context, question *models.Question) error
	QuestionsForQuiz(ctx context.Context, quizID string) ([]models.Question, error)
	CreateSubmission(ctx context.Context, submission *models.QuizSubmission) error
	DistinctSubmittedCount(ctx context.Context, studentID, courseID string) (int, error)
}

type quizCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type quizBadgeRepo interface {
	CreateIfAbsent(ctx context.Context, badge *models.Badge) (bool, error)
}

// CreateQuizRequest declares a quiz under a course.
type CreateQuizRequest struct {
	CourseID        string                  `json:"course_id" validate:"required"`
	Title           string                  `json:"title" validate:"required"`
	Description     string                  `json:"description"`
	DurationMinutes int                     `json:"duration_minutes" validate:"gte=0"`
	Questions       []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// CreateQuestionRequest declares one multiple-choice question.
type CreateQuestionRequest struct {
	Text    string `json:"text" validate:"required"`
	Choice1 string `json:"choice_1" validate:"required"`
	Choice2 string `json:"choice_2" validate:"required"`
	Choice3 string `json:"choice_3" validate:"required"`
	Answer  string `json:"answer" validate:"required"`
}

// SubmitQuizRequest carries a student's answers keyed by question ID.
type SubmitQuizRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

// SubmitQuizResult reports the graded attempt.
type SubmitQuizResult struct {
	Submission      models.QuizSubmission `json:"submission"`
	Correct         int                   `json:"correct"`
	Total           int                   `json:"total"`
	CourseCompleted bool                  `json:"course_completed"`
}

// QuizService manages quizzes, grades submissions on the ten-point scale and
// awards the course-completion badge.
type QuizService struct {
	quizzes   quizRepo
	courses   quizCourseReader
	badges    quizBadgeRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuizService constructs a QuizService.
func NewQuizService(quizzes quizRepo, courses quizCourseReader, badges quizBadgeRepo, validate *validator.Validate, logger *zap.Logger) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{quizzes: quizzes, courses: courses, badges: badges, validator: validate, logger: logger}
}

// Create declares a quiz with its questions under a course.
func (s *QuizService) Create(ctx context.Context, req CreateQuizRequest) (*models.QuizDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	for _, q := range req.Questions {
		if q.Answer != q.Choice1 && q.Answer != q.Choice2 && q.Answer != q.Choice3 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "question answer must match one of the choices")
		}
	}

	quiz := &models.Quiz{
		CourseID:        req.CourseID,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		question := models.Question{
			QuizID:  quiz.ID,
			Text:    q.Text,
			Choice1: q.Choice1,
			Choice2: q.Choice2,
			Choice3: q.Choice3,
			Answer:  q.Answer,
		}
		if err := s.quizzes.CreateQuestion(ctx, &question); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
		}
		questions = append(questions, question)
	}

	return &models.QuizDetail{Quiz: *quiz, Questions: questions}, nil
}

// Get returns a quiz with its questions. Answers stay server side, the
// question model never serialises them.
func (s *QuizService) Get(ctx context.Context, id string) (*models.QuizDetail, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	questions, err := s.quizzes.QuestionsForQuiz(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	return &models.QuizDetail{Quiz: *quiz, Questions: questions}, nil
}

// ListByCourse returns the quizzes of a course.
func (s *QuizService) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	return quizzes, nil
}

// Submit grades a student's answers on the ten-point scale, stores the
// attempt and awards the completion badge once every quiz of the course has
// been submitted at least once. Repeat submissions are allowed.
func (s *QuizService) Submit(ctx context.Context, studentID, quizID string, req SubmitQuizRequest) (*SubmitQuizResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	questions, err := s.quizzes.QuestionsForQuiz(ctx, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	if len(questions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quiz has no questions")
	}

	correct := 0
	for _, question := range questions {
		if answer, ok := req.Answers[question.ID]; ok && answer == question.Answer {
			correct++
		}
	}
	score := math.Round(float64(correct)/float64(len(questions))*100) / 10

	submission := &models.QuizSubmission{
		StudentID: studentID,
		QuizID:    quizID,
		Score:     &score,
	}
	if err := s.quizzes.CreateSubmission(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}

	completed, err := s.maybeAwardCompletionBadge(ctx, studentID, quiz.CourseID)
	if err != nil {
		s.logger.Warn("course completion badge check failed",
			zap.String("student_id", studentID),
			zap.String("course_id", quiz.CourseID),
			zap.Error(err))
	}

	return &SubmitQuizResult{
		Submission:      *submission,
		Correct:         correct,
		Total:           len(questions),
		CourseCompleted: completed,
	}, nil
}

func (s *QuizService) maybeAwardCompletionBadge(ctx context.Context, studentID, courseID string) (bool, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("load course: %w", err)
	}

	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("list course quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return false, nil
	}

	submitted, err := s.quizzes.DistinctSubmittedCount(ctx, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("count submitted quizzes: %w", err)
	}
	if submitted < len(quizzes) {
		return false, nil
	}

	created, err := s.badges.CreateIfAbsent(ctx, &models.Badge{
		StudentID: studentID,
		CourseID:  courseID,
		Title:     fmt.Sprintf("Cours terminé : %s", course.Name),
	})
	if err != nil {
		return false, fmt.Errorf("award completion badge: %w", err)
	}
	if created {
		s.logger.Info("course completion badge awarded",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID))
	}
	return created, nil
}
