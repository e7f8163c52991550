package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/dto"
	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type gameSessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.GameSession, error)
	Save(ctx context.Context, session *models.GameSession) error
	Delete(ctx context.Context, sessionID string) error
}

type gameBadgeRepo interface {
	CreateIfAbsent(ctx context.Context, badge *models.Badge) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error)
}

type gameStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type gameCourseReader interface {
	FirstByClassLevel(ctx context.Context, classLevel string) (*models.Course, error)
}

type gameProblemReader interface {
	Random(ctx context.Context, level string) (*models.Problem, error)
	FindByID(ctx context.Context, id string) (*models.Problem, error)
}

// wordBank holds the word-hunt entries. The hint is shown, the word is the
// expected answer.
var wordBank = []models.WordEntry{
	{Word: "chat", Hint: "Un petit animal domestique qui miaule."},
	{Word: "école", Hint: "L'endroit où les élèves apprennent."},
	{Word: "livre", Hint: "On le lit pour apprendre ou rêver."},
	{Word: "soleil", Hint: "Il brille dans le ciel pendant la journée."},
	{Word: "maison", Hint: "On y habite avec sa famille."},
	{Word: "pomme", Hint: "Un fruit rouge ou vert que l'on croque."},
	{Word: "crayon", Hint: "On écrit et on dessine avec."},
	{Word: "fleur", Hint: "Elle pousse dans le jardin et sent bon."},
}

// GameService drives the educational mini-games. Session state is an
// explicit value object persisted in the session store: every turn loads it,
// mutates it and saves it back, so no game state lives in the process.
type GameService struct {
	sessions  gameSessionStore
	badges    gameBadgeRepo
	students  gameStudentReader
	courses   gameCourseReader
	problems  gameProblemReader
	logger    *zap.Logger
	threshold int
}

// NewGameService constructs a GameService. A non-positive threshold falls
// back to five points per badge.
func NewGameService(sessions gameSessionStore, badges gameBadgeRepo, students gameStudentReader, courses gameCourseReader, problems gameProblemReader, threshold int, logger *zap.Logger) *GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 5
	}
	return &GameService{
		sessions:  sessions,
		badges:    badges,
		students:  students,
		courses:   courses,
		problems:  problems,
		logger:    logger,
		threshold: threshold,
	}
}

// StartWordHunt opens a word-hunt session with a fresh word.
func (s *GameService) StartWordHunt(ctx context.Context) (*dto.WordRoundResponse, error) {
	entry := wordBank[rand.Intn(len(wordBank))]
	session := &models.GameSession{
		SessionID: uuid.NewString(),
		Game:      models.GameWordHunt,
		Word:      entry.Word,
		Hint:      entry.Hint,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save game session")
	}
	return &dto.WordRoundResponse{Hint: entry.Hint, Session: *session}, nil
}

// CheckWord verifies a word-hunt guess, updates the score and rolls a new
// word. The badge is awarded when the score reaches the threshold.
func (s *GameService) CheckWord(ctx context.Context, sessionID, studentID, guess string) (*dto.GameTurnResponse, error) {
	session, err := s.loadSession(ctx, sessionID, models.GameWordHunt)
	if err != nil {
		return nil, err
	}

	correct := strings.EqualFold(strings.TrimSpace(guess), session.Word)
	message := "Ce n'est pas le bon mot, essaie encore !"
	if correct {
		session.Score++
		message = "Bravo, c'est le bon mot !"
	}

	entry := wordBank[rand.Intn(len(wordBank))]
	session.Word = entry.Word
	session.Hint = entry.Hint

	badgeEarned, err := s.settleTurn(ctx, session, studentID, models.BadgeWordHunter)
	if err != nil {
		return nil, err
	}
	return &dto.GameTurnResponse{Correct: correct, Message: message, Session: *session, BadgeEarned: badgeEarned}, nil
}

// StartMath opens an addition session with a first pair of operands.
func (s *GameService) StartMath(ctx context.Context) (*dto.MathRoundResponse, error) {
	session := &models.GameSession{
		SessionID: uuid.NewString(),
		Game:      models.GameMath,
		OperandA:  rand.Intn(10) + 1,
		OperandB:  rand.Intn(10) + 1,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save game session")
	}
	return &dto.MathRoundResponse{OperandA: session.OperandA, OperandB: session.OperandB, Session: *session}, nil
}

// CheckMath verifies an addition answer, updates the score and rolls new
// operands.
func (s *GameService) CheckMath(ctx context.Context, sessionID, studentID string, answer int) (*dto.GameTurnResponse, error) {
	session, err := s.loadSession(ctx, sessionID, models.GameMath)
	if err != nil {
		return nil, err
	}

	correct := answer == session.OperandA+session.OperandB
	message := "Mauvaise réponse, recompte bien !"
	if correct {
		session.Score++
		message = "Bravo, bonne réponse !"
	}

	session.OperandA = rand.Intn(10) + 1
	session.OperandB = rand.Intn(10) + 1

	badgeEarned, err := s.settleTurn(ctx, session, studentID, models.BadgeMathMaster)
	if err != nil {
		return nil, err
	}
	return &dto.GameTurnResponse{Correct: correct, Message: message, Session: *session, BadgeEarned: badgeEarned}, nil
}

// StartProblem opens an illustrated-problem session and returns a random
// problem of the requested level.
func (s *GameService) StartProblem(ctx context.Context, level string) (*dto.ProblemRoundResponse, *models.GameSession, error) {
	problem, err := s.problems.Random(ctx, level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no problem available for this level")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem")
	}

	session := &models.GameSession{
		SessionID: uuid.NewString(),
		Game:      models.GameProblem,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save game session")
	}
	return &dto.ProblemRoundResponse{Problem: *problem, Level: level}, session, nil
}

// CheckProblem verifies a problem answer against the bank and updates the
// session score.
func (s *GameService) CheckProblem(ctx context.Context, sessionID, studentID, problemID, answer string) (*dto.GameTurnResponse, error) {
	session, err := s.loadSession(ctx, sessionID, models.GameProblem)
	if err != nil {
		return nil, err
	}

	problem, err := s.problems.FindByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "problem not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem")
	}

	correct := strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(problem.Answer))
	message := "Ce n'est pas la bonne réponse, relis bien l'énoncé."
	if correct {
		session.Score++
		message = "Bravo, problème résolu !"
	}

	badgeEarned, err := s.settleTurn(ctx, session, studentID, models.BadgeProblem)
	if err != nil {
		return nil, err
	}
	return &dto.GameTurnResponse{Correct: correct, Message: message, Session: *session, BadgeEarned: badgeEarned}, nil
}

// Overview summarises how many of the mini-games a student has completed.
func (s *GameService) Overview(ctx context.Context, studentID string) (*dto.GameOverviewResponse, error) {
	badges, err := s.badges.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badges")
	}

	gameTitles := map[string]bool{
		models.BadgeWordHunter: false,
		models.BadgeMathMaster: false,
		models.BadgeProblem:    false,
	}
	done := 0
	earned := make([]models.Badge, 0, len(badges))
	for _, badge := range badges {
		seen, tracked := gameTitles[badge.Title]
		if !tracked {
			continue
		}
		earned = append(earned, badge)
		if !seen {
			gameTitles[badge.Title] = true
			done++
		}
	}

	total := len(gameTitles)
	pct := done * 100 / total
	message := "Lance-toi, les mini-jeux t'attendent !"
	switch {
	case done == total:
		message = "Tous les badges des mini-jeux sont à toi, félicitations !"
	case done > 0:
		message = "Continue, il reste des badges à gagner !"
	}

	return &dto.GameOverviewResponse{
		Badges:      earned,
		DoneGames:   done,
		TotalGames:  total,
		ProgressPct: pct,
		Message:     message,
	}, nil
}

func (s *GameService) loadSession(ctx context.Context, sessionID string, game models.GameKind) (*models.GameSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrCacheMiss.Code {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "game session not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load game session")
	}
	if session.Game != game {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session belongs to another game")
	}
	return session, nil
}

// settleTurn persists the session and awards the badge once the score hits
// the threshold. The badge is scoped to the course of record of the
// student's class level; when no course matches, the award is skipped
// without error.
func (s *GameService) settleTurn(ctx context.Context, session *models.GameSession, studentID, badgeTitle string) (bool, error) {
	if err := s.sessions.Save(ctx, session); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save game session")
	}

	if session.Score < s.threshold {
		return false, nil
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	course, err := s.courses.FirstByClassLevel(ctx, student.ClassLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("no course of record for class level, skipping badge",
				zap.String("student_id", studentID),
				zap.String("class_level", student.ClassLevel))
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course of record")
	}

	created, err := s.badges.CreateIfAbsent(ctx, &models.Badge{
		StudentID: studentID,
		CourseID:  course.ID,
		Title:     badgeTitle,
	})
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award badge")
	}
	if created {
		s.logger.Info("mini-game badge awarded",
			zap.String("student_id", studentID),
			zap.String("badge", badgeTitle),
			zap.String("course_id", course.ID))
	}
	return created, nil
}
